package crawlbase

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testToken = "tok"

// recordedRequest is what the test server saw, handlers only write
// responses and assertions happen on the test goroutine.
type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Query       url.Values
	ContentType string
	Body        string
}

type testServer struct {
	client *Client
	fs     afero.Fs

	mutex    sync.Mutex
	requests []recordedRequest
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()

	s := &testServer{fs: afero.NewMemMapFs()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mutex.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		s.mutex.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := New(testToken, ClientOptions{
		BaseURL: server.URL,
		Fs:      s.fs,
	})
	require.NoError(t, err)
	s.client = client
	return s
}

func (s *testServer) count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.requests)
}

func (s *testServer) last(t *testing.T) recordedRequest {
	t.Helper()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New("", ClientOptions{})
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCrawlingGetHTML(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("original_status", "200")
		w.Header().Set("pc_status", "200")
		w.Header().Set("url", "https://example.com")
		w.Header().Set("storage_url", "https://api.crawlbase.com/storage?rid=r42")
		w.Write([]byte("<html>ok</html>"))
	})

	res, err := s.client.Crawling().Get(
		testContext(t),
		"https://example.com",
		NewOptions().Set("ajax_wait", true),
	)
	require.NoError(t, err)

	req := s.last(t)
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/", req.Path)
	require.Equal(t, "ajax_wait=true&url=https%3A%2F%2Fexample.com&token=tok", req.RawQuery)

	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, "<html>ok</html>", res.Body)
	require.Equal(t, 200, *res.OriginalStatus)
	require.Equal(t, 200, *res.ServiceStatus)
	require.Equal(t, "https://example.com", res.URL)
	require.Equal(t, "r42", res.RID)
}

func TestCrawlingGetJSON(t *testing.T) {
	envelope := `{"original_status":200,"pc_status":403,"url":"https://example.com","body":"<html/>"}`
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// headers are ignored for json responses
		w.Header().Set("original_status", "500")
		w.Write([]byte(envelope))
	})

	res, err := s.client.Crawling().Get(testContext(t), "https://example.com", NewOptions().Set("format", "json"))
	require.NoError(t, err)
	require.Equal(t, "json", s.last(t).Query.Get("format"))

	require.Equal(t, envelope, res.Body)
	require.Equal(t, 200, *res.OriginalStatus)
	require.Equal(t, 403, *res.ServiceStatus)
	require.Equal(t, "https://example.com", res.URL)
}

func TestCrawlingGetNonSuccessStatus(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("pc_status", "520")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("failed"))
	})

	res, err := s.client.Crawling().Get(testContext(t), "https://example.com", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Equal(t, 520, *res.ServiceStatus)
	require.Equal(t, "failed", res.Body)
}

func TestCrawlingGetInvalidArgument(t *testing.T) {
	s := newTestServer(t, respond(""))

	_, err := s.client.Crawling().Get(testContext(t), "", nil)
	require.True(t, errors.Is(err, ErrInvalidArgument))
	require.Equal(t, 0, s.count())
}

func TestCrawlingPost(t *testing.T) {
	testCases := []struct {
		name        string
		opts        *Options
		contentType string
		body        string
	}{
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=John%20Doe&agree=true",
		},
		{
			name:        "json",
			opts:        NewOptions().Set("format", "json"),
			contentType: "application/json",
			body:        `{"name":"John Doe","agree":true}`,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			s := newTestServer(t, respond(`{"original_status":201}`))

			data := NewOptions().Set("name", "John Doe").Set("agree", true)
			res, err := s.client.Crawling().Post(testContext(t), "https://example.com/form", data, test.opts)
			require.NoError(t, err)
			require.Equal(t, 200, res.StatusCode)

			req := s.last(t)
			require.Equal(t, http.MethodPost, req.Method)
			require.Equal(t, test.contentType, req.ContentType)
			require.Equal(t, test.body, req.Body)
			require.Equal(t, "https://example.com/form", req.Query.Get("url"))
		})
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := New(testToken, ClientOptions{BaseURL: baseURL, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)

	_, err = client.Crawling().Get(testContext(t), "https://example.com", nil)
	require.True(t, errors.Is(err, ErrTransport))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, http.MethodGet, transportErr.Method)
	require.NotContains(t, transportErr.URL, "token=")
	require.NotContains(t, err.Error(), "token="+testToken)
}

func TestScraperGet(t *testing.T) {
	s := newTestServer(t, respond(`{"original_status":200,"pc_status":200,"url":"https://example.com","remaining_requests":9,"body":{"title":"Example","price":"1.00"}}`))

	res, err := s.client.Scraper().Get(
		testContext(t),
		"https://example.com",
		NewOptions().Set("scraper", "amazon-product-details"),
	)
	require.NoError(t, err)

	req := s.last(t)
	require.Equal(t, "/scraper", req.Path)
	require.Equal(t, "amazon-product-details", req.Query.Get("scraper"))

	require.JSONEq(t, `{"title":"Example","price":"1.00"}`, res.Body)
	require.Equal(t, 9, *res.RemainingRequests)
	require.Equal(t, 200, *res.ServiceStatus)
}

func TestScraperMalformed(t *testing.T) {
	s := newTestServer(t, respond(`<html>not json</html>`))

	_, err := s.client.Scraper().Get(testContext(t), "https://example.com", nil)
	require.True(t, errors.Is(err, ErrProjectionFailure))
}

func TestUnsupportedOperations(t *testing.T) {
	s := newTestServer(t, respond(""))
	ctx := testContext(t)

	_, err := s.client.Scraper().Post(ctx, "https://example.com", nil, nil)
	require.True(t, errors.Is(err, ErrUnsupportedOperation))

	_, err = s.client.Screenshots().Post(ctx, "https://example.com", nil, nil)
	require.True(t, errors.Is(err, ErrUnsupportedOperation))

	require.Equal(t, 0, s.count())
}

func TestScreenshotsGet(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("screenshot_url", "https://cdn.example.com/shot.jpg")
		w.Header().Set("success", "true")
		w.Header().Set("remaining_requests", "3")
		w.Write(image)
	})

	res, err := s.client.Screenshots().Get(
		testContext(t),
		"https://example.com",
		NewOptions().Set(SaveToPathOption, "/shots/out.jpg"),
	)
	require.NoError(t, err)

	req := s.last(t)
	require.Equal(t, "/screenshots", req.Path)
	require.False(t, req.Query.Has(SaveToPathOption))

	require.Equal(t, "/shots/out.jpg", res.Path)
	require.Equal(t, base64.StdEncoding.EncodeToString(image), res.Body)
	require.Equal(t, "https://cdn.example.com/shot.jpg", res.ScreenshotURL)
	require.True(t, *res.Success)
	require.Equal(t, 3, *res.RemainingRequests)

	saved, err := afero.ReadFile(s.fs, "/shots/out.jpg")
	require.NoError(t, err)
	require.Equal(t, image, saved)
}

func TestScreenshotsDefaultPath(t *testing.T) {
	s := newTestServer(t, respond("jpg"))

	res, err := s.client.Screenshots().Get(testContext(t), "https://example.com", nil)
	require.NoError(t, err)
	require.Equal(t, os.TempDir(), filepath.Dir(res.Path))
	require.True(t, strings.HasSuffix(res.Path, ".jpg"))

	exists, err := afero.Exists(s.fs, res.Path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestScreenshotsPathValidation(t *testing.T) {
	s := newTestServer(t, respond("jpg"))
	ctx := testContext(t)

	for _, path := range []string{"out.png", "out.jpg.txt", ".jpg", "out"} {
		_, err := s.client.Screenshots().Get(ctx, "https://example.com", NewOptions().Set(SaveToPathOption, path))
		require.True(t, errors.Is(err, ErrInvalidArgument), path)
	}
	require.Equal(t, 0, s.count())

	for _, path := range []string{"/out.jpg", "/out.JPEG", "/a/b.jpeg"} {
		_, err := s.client.Screenshots().Get(ctx, "https://example.com", NewOptions().Set(SaveToPathOption, path))
		require.NoError(t, err, path)
	}
}

func TestStorageGet(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("original_status", "200")
		w.Header().Set("pc_status", "200")
		w.Header().Set("url", "https://example.com")
		w.Header().Set("rid", "r1")
		w.Header().Set("stored_at", "2024-03-04T05:06:07Z")
		w.Write([]byte("<html>stored</html>"))
	})
	ctx := testContext(t)

	byURL, err := s.client.Storage().GetByURL(ctx, "https://example.com", FormatNone)
	require.NoError(t, err)
	req := s.last(t)
	require.Equal(t, "/storage", req.Path)
	require.Equal(t, "html", req.Query.Get("format"))
	require.Equal(t, "https://example.com", req.Query.Get("url"))

	byRID, err := s.client.Storage().GetByRID(ctx, "r1", FormatJSON)
	require.NoError(t, err)
	req = s.last(t)
	require.Equal(t, "json", req.Query.Get("format"))
	require.Equal(t, "r1", req.Query.Get("rid"))
	require.False(t, req.Query.Has("url"))

	for _, res := range []*StorageResponse{byURL, byRID} {
		require.Equal(t, 200, res.StatusCode)
		require.Equal(t, "r1", res.RID)
		require.Equal(t, "<html>stored</html>", res.Body)
		require.Equal(t, 200, *res.OriginalStatus)
		require.True(t, res.StoredAt.Equal(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)))
	}
}

func TestStorageDelete(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		expected bool
	}{
		{"acknowledged", `{"success":"Deleted"}`, true},
		{"error", `{"error":"not found"}`, false},
		{"explicit false", `{"success":false}`, false},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			s := newTestServer(t, respond(test.response))

			ok, err := s.client.Storage().Delete(testContext(t), "r1")
			require.NoError(t, err)
			require.Equal(t, test.expected, ok)

			req := s.last(t)
			require.Equal(t, http.MethodDelete, req.Method)
			require.Equal(t, "rid=r1&token=tok", req.RawQuery)
		})
	}
}

func TestStorageBulk(t *testing.T) {
	s := newTestServer(t, respond(`[
		{"original_status":200,"pc_status":200,"url":"https://a.com","rid":"r1","stored_at":"2024-01-01T00:00:00Z","body":"<p>a</p>"},
		{"original_status":404,"pc_status":404,"url":"https://b.com","rid":"r2","body":"<p>b</p>"}
	]`))

	records, err := s.client.Storage().Bulk(testContext(t), []string{"r1", "r2"})
	require.NoError(t, err)

	req := s.last(t)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/storage/bulk", req.Path)
	require.Equal(t, "token=tok", req.RawQuery)
	require.Equal(t, "application/json", req.ContentType)
	require.Equal(t, `{"rids":["r1","r2"]}`, req.Body)

	require.Len(t, records, 2)

	require.Equal(t, "r1", records[0].RID)
	require.Equal(t, "https://a.com", records[0].URL)
	require.Equal(t, "<p>a</p>", records[0].Body)
	require.Equal(t, 200, *records[0].ServiceStatus)
	require.NotNil(t, records[0].StoredAt)

	require.Equal(t, "r2", records[1].RID)
	require.Equal(t, 404, *records[1].OriginalStatus)
	require.Nil(t, records[1].StoredAt)
}

func TestStorageBulkEdgeCases(t *testing.T) {
	s := newTestServer(t, respond(`[{"rid":"r1"`))
	ctx := testContext(t)

	_, err := s.client.Storage().Bulk(ctx, nil)
	require.True(t, errors.Is(err, ErrInvalidArgument))
	require.Equal(t, 0, s.count())

	records, err := s.client.Storage().Bulk(ctx, []string{"r1"})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestStorageRIDs(t *testing.T) {
	testCases := []struct {
		name     string
		limit    int
		response string
		query    string
		expected []string
	}{
		{
			name:     "limited",
			limit:    2,
			response: `["r1","r2"]`,
			query:    "limit=2&token=tok",
			expected: []string{"r1", "r2"},
		},
		{
			name:     "no limit",
			limit:    NoLimit,
			response: `["r1","r2","r3"]`,
			query:    "token=tok",
			expected: []string{"r1", "r2", "r3"},
		},
		{
			name:     "only a root array is read",
			limit:    NoLimit,
			response: `{"rids":["r1","r2"]}`,
			query:    "token=tok",
			expected: []string{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			s := newTestServer(t, respond(test.response))

			rids, err := s.client.Storage().RIDs(testContext(t), test.limit)
			require.NoError(t, err)
			require.Equal(t, test.expected, rids)

			req := s.last(t)
			require.Equal(t, "/storage/rids", req.Path)
			require.Equal(t, test.query, req.RawQuery)
		})
	}
}

func TestStorageTotalCount(t *testing.T) {
	testCases := []struct {
		response string
		expected int
	}{
		{`{"totalCount":12}`, 12},
		{`{"totalCount":"many"}`, 0},
		{`{}`, 0},
	}

	for _, test := range testCases {
		t.Run(test.response, func(t *testing.T) {
			s := newTestServer(t, respond(test.response))

			count, err := s.client.Storage().TotalCount(testContext(t))
			require.NoError(t, err)
			require.Equal(t, test.expected, count)
			require.Equal(t, "/storage/total_count", s.last(t).Path)
		})
	}
}

func TestLeadsGet(t *testing.T) {
	envelope := `{"success":true,"remaining_requests":7,"domain":"x.com","leads":[{"email":"a@x.com","sources":["s1","s2"]},{"email":"b@y.com","sources":[]}]}`
	s := newTestServer(t, respond(envelope))

	res, err := s.client.Leads().Get(testContext(t), "x.com")
	require.NoError(t, err)

	req := s.last(t)
	require.Equal(t, "/leads", req.Path)
	require.Equal(t, "domain=x.com&token=tok", req.RawQuery)

	require.True(t, res.Success)
	require.Equal(t, 7, res.RemainingRequests)
	require.Equal(t, "x.com", res.Domain)
	require.Equal(t, envelope, res.Body)
	require.Equal(t, []Lead{
		{Email: "a@x.com", Sources: []string{"s1", "s2"}},
		{Email: "b@y.com", Sources: []string{}},
	}, res.Leads)
}

func TestLeadsMalformed(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":true,"leads":[`))
	})

	res, err := s.client.Leads().Get(testContext(t), "x.com")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Empty(t, res.Leads)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)
}

func TestAsync(t *testing.T) {
	s := newTestServer(t, respond(`{"body":"async"}`))
	ctx := testContext(t)

	results := []<-chan AsyncResult[*Response]{}
	for i := 0; i < 4; i++ {
		results = append(results, Async(ctx, func(ctx context.Context) (*Response, error) {
			return s.client.Scraper().Get(ctx, "https://example.com", nil)
		}))
	}
	for _, ch := range results {
		result, ok := <-ch
		require.True(t, ok)
		require.NoError(t, result.Err)
		require.Equal(t, "async", result.Value.Body)

		_, ok = <-ch
		require.False(t, ok)
	}
	require.Equal(t, 4, s.count())
}
