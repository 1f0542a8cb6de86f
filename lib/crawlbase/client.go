package crawlbase

import (
	"fmt"
	"strings"

	"crawlbase/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lib/crawlbase")

const DefaultBaseURL = "https://api.crawlbase.com"

type ClientOptions struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Http is instrumented by New, a fresh resty client is used when nil.
	Http *resty.Client
	// Fs receives screenshot captures, defaults to the os filesystem.
	Fs afero.Fs
	// InstrumentOutput receives a dump of every exchange when debug logging
	// is enabled, can be nil.
	InstrumentOutput restyutil.InstrumentOutput
}

// Client is safe for concurrent use, nothing in it changes after New.
type Client struct {
	token   string
	baseURL string
	http    *resty.Client
	fs      afero.Fs
}

func New(token string, opts ClientOptions) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrInvalidArgument)
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := opts.Http
	if http == nil {
		http = resty.New()
	}
	restyutil.InstrumentClient(http, otel.Tracer("lib/crawlbase/http"), opts.InstrumentOutput)

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Client{
		token:   token,
		baseURL: baseURL,
		http:    http,
		fs:      fs,
	}, nil
}

func (c *Client) Crawling() *CrawlingAPI {
	return &CrawlingAPI{client: c}
}

func (c *Client) Scraper() *ScraperAPI {
	return &ScraperAPI{client: c}
}

func (c *Client) Screenshots() *ScreenshotsAPI {
	return &ScreenshotsAPI{client: c}
}

func (c *Client) Storage() *StorageAPI {
	return &StorageAPI{client: c}
}

func (c *Client) Leads() *LeadsAPI {
	return &LeadsAPI{client: c}
}
