package crawlbase

import (
	"context"
	"fmt"
	"net/http"
)

// Response is the result of a crawling or scraper call.
type Response struct {
	StatusCode int
	Metadata
	Body string
}

func newResponse(ex extraction) *Response {
	return &Response{
		StatusCode: ex.StatusCode,
		Metadata:   ex.Metadata,
		Body:       ex.Body,
	}
}

// CrawlingAPI is the generic fetch endpoint. The response is projected from
// the json body when the "format" option is "json", from the headers
// otherwise.
type CrawlingAPI struct {
	client *Client
}

func (a *CrawlingAPI) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	ex, err := a.client.execute(ctx, crawlingProfile, call{
		method:      http.MethodGet,
		targetName:  "url",
		targetValue: url,
		options:     opts,
		format:      formatOption(opts),
	})
	if err != nil {
		return nil, err
	}
	return newResponse(ex), nil
}

// Post forwards data to url, encoded as json when the "format" option is
// "json" and as a form otherwise.
func (a *CrawlingAPI) Post(ctx context.Context, url string, data, opts *Options) (*Response, error) {
	format := formatOption(opts)
	in := call{
		method:      http.MethodPost,
		targetName:  "url",
		targetValue: url,
		options:     opts,
		format:      format,
	}
	if data.Len() > 0 {
		if format == FormatJSON {
			body, err := EncodeJSON(data)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
			}
			in.body, in.contentType = body, "application/json"
		} else {
			in.body, in.contentType = []byte(EncodeForm(data)), "application/x-www-form-urlencoded"
		}
	}

	ex, err := a.client.execute(ctx, crawlingProfile, in)
	if err != nil {
		return nil, err
	}
	return newResponse(ex), nil
}

func formatOption(opts *Options) Format {
	v, ok := opts.Get("format")
	if !ok || v == nil {
		return FormatNone
	}
	return Format(fmt.Sprint(v))
}
