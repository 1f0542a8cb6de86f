package crawlbase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
)

type Lead struct {
	Email   string
	Sources []string
}

type LeadsResponse struct {
	StatusCode        int
	Body              string
	Success           bool
	RemainingRequests int
	Domain            string
	Leads             []Lead
}

// LeadsAPI looks up email addresses found for a domain.
type LeadsAPI struct {
	client *Client
}

// Get looks up leads for domain. Success reports whether the service
// answered with a usable result: a malformed body sets it to false instead
// of returning an error, only invalid arguments and transport failures are
// returned as errors. Body is the whole json envelope, the leads array is
// only exposed already projected into Leads.
func (a *LeadsAPI) Get(ctx context.Context, domain string) (*LeadsResponse, error) {
	ex, err := a.client.execute(ctx, leadsProfile, call{
		method:      http.MethodGet,
		targetName:  "domain",
		targetValue: domain,
	})
	if errors.Is(err, ErrProjectionFailure) {
		slog.WarnContext(ctx, "discarding malformed leads response", "domain", domain, "status", ex.StatusCode, "err", err)
		return &LeadsResponse{
			StatusCode: ex.StatusCode,
			Body:       ex.Body,
			Leads:      []Lead{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &LeadsResponse{
		StatusCode: ex.StatusCode,
		Body:       ex.Body,
		Domain:     ex.Projection.Fields[fieldDomain],
		Leads:      make([]Lead, 0, len(ex.Projection.Records)),
	}
	if ex.Metadata.Success != nil {
		out.Success = *ex.Metadata.Success
	}
	if ex.Metadata.RemainingRequests != nil {
		out.RemainingRequests = *ex.Metadata.RemainingRequests
	}
	for _, rec := range ex.Projection.Records {
		out.Leads = append(out.Leads, Lead{
			Email:   rec.Fields["email"],
			Sources: slices.Clip(rec.Lists["sources"]),
		})
	}
	return out, nil
}
