package crawlbase

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// response fields, shared by headers and json bodies
const (
	fieldOriginalStatus    = "original_status"
	fieldCBStatus          = "cb_status"
	fieldPCStatus          = "pc_status"
	fieldURL               = "url"
	fieldStorageURL        = "storage_url"
	fieldRID               = "rid"
	fieldStoredAt          = "stored_at"
	fieldSuccess           = "success"
	fieldRemainingRequests = "remaining_requests"
	fieldScreenshotURL     = "screenshot_url"
	fieldBody              = "body"
	fieldDomain            = "domain"
	fieldTotalCount        = "totalCount"
)

// Metadata holds the optional fields the service reports alongside a body.
// A nil pointer or empty string means the field was absent or unparsable.
type Metadata struct {
	OriginalStatus *int
	// ServiceStatus is the crawlbase business status (cb_status, falling
	// back to pc_status).
	ServiceStatus     *int
	URL               string
	StorageURL        string
	RID               string
	StoredAt          *time.Time
	Success           *bool
	RemainingRequests *int
	ScreenshotURL     string
}

type fieldGetter func(name string) (string, bool)

func headerGetter(h http.Header) fieldGetter {
	return func(name string) (string, bool) {
		values := h.Values(name)
		if len(values) == 0 {
			return "", false
		}
		return values[len(values)-1], true
	}
}

func mapGetter(m map[string]string) fieldGetter {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// ProjectHeaders reads Metadata out of response headers. It never fails,
// fields that cannot be parsed are left unset.
func ProjectHeaders(h http.Header) Metadata {
	return projectMetadata(headerGetter(h))
}

func projectFields(fields map[string]string) Metadata {
	return projectMetadata(mapGetter(fields))
}

func projectMetadata(get fieldGetter) Metadata {
	m := Metadata{
		OriginalStatus:    parseInt(get, fieldOriginalStatus),
		ServiceStatus:     parseInt(get, fieldCBStatus),
		URL:               parseString(get, fieldURL),
		StorageURL:        parseString(get, fieldStorageURL),
		RID:               parseString(get, fieldRID),
		StoredAt:          parseTime(get, fieldStoredAt),
		Success:           parseBool(get, fieldSuccess),
		RemainingRequests: parseInt(get, fieldRemainingRequests),
		ScreenshotURL:     parseString(get, fieldScreenshotURL),
	}
	if m.ServiceStatus == nil {
		m.ServiceStatus = parseInt(get, fieldPCStatus)
	}
	return m
}

var ridPattern = regexp.MustCompile(`rid=(\w+)`)

// deriveRID recovers the storage rid from a storage url, returning "" when
// there is none.
func deriveRID(storageURL string) string {
	match := ridPattern.FindStringSubmatch(storageURL)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

func parseString(get fieldGetter, name string) string {
	v, _ := get(name)
	return v
}

func parseInt(get fieldGetter, name string) *int {
	v, ok := get(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &n
}

func parseBool(get fieldGetter, name string) *bool {
	v, ok := get(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &b
}

func parseTime(get fieldGetter, name string) *time.Time {
	v, ok := get(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	t, err := dateparse.ParseAny(strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &t
}
