package crawlbase

import (
	"context"
	"fmt"
	"net/http"
)

// ScraperAPI always reads json. The returned Body is the inner "body" field
// of the envelope rather than the envelope itself.
type ScraperAPI struct {
	client *Client
}

func (a *ScraperAPI) Get(ctx context.Context, url string, opts *Options) (*Response, error) {
	ex, err := a.client.execute(ctx, scraperProfile, call{
		method:      http.MethodGet,
		targetName:  "url",
		targetValue: url,
		options:     opts,
	})
	if err != nil {
		return nil, err
	}
	return newResponse(ex), nil
}

// Post always fails, the scraper is read only.
func (a *ScraperAPI) Post(ctx context.Context, url string, data, opts *Options) (*Response, error) {
	return nil, fmt.Errorf("%w: only GET is allowed for the scraper api", ErrUnsupportedOperation)
}
