package crawlbase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crawlbase/lib/jsonstream"
)

const NoLimit = -1

type StorageResponse struct {
	StatusCode int
	StorageRecord
}

type StorageRecord struct {
	OriginalStatus *int
	ServiceStatus  *int
	URL            string
	RID            string
	StoredAt       *time.Time
	Body           string
}

func storageRecordFromMetadata(m Metadata, body string) StorageRecord {
	return StorageRecord{
		OriginalStatus: m.OriginalStatus,
		ServiceStatus:  m.ServiceStatus,
		URL:            m.URL,
		RID:            m.RID,
		StoredAt:       m.StoredAt,
		Body:           body,
	}
}

// StorageAPI reads and manages pages previously captured with the
// "store" option.
type StorageAPI struct {
	client *Client
}

// GetByURL fetches the latest stored capture of url. format defaults to
// html when empty.
func (a *StorageAPI) GetByURL(ctx context.Context, url string, format Format) (*StorageResponse, error) {
	return a.get(ctx, "url", url, format)
}

// GetByRID fetches a stored capture by rid. format defaults to html when
// empty.
func (a *StorageAPI) GetByRID(ctx context.Context, rid string, format Format) (*StorageResponse, error) {
	return a.get(ctx, "rid", rid, format)
}

func (a *StorageAPI) get(ctx context.Context, targetName, targetValue string, format Format) (*StorageResponse, error) {
	if format == FormatNone {
		format = FormatHTML
	}
	ex, err := a.client.execute(ctx, storageGetProfile, call{
		method:      http.MethodGet,
		targetName:  targetName,
		targetValue: targetValue,
		options:     NewOptions().Set("format", string(format)),
	})
	if err != nil {
		return nil, err
	}
	return &StorageResponse{
		StatusCode:    ex.StatusCode,
		StorageRecord: storageRecordFromMetadata(ex.Metadata, ex.Body),
	}, nil
}

// Delete removes a stored capture, reporting whether the service
// acknowledged it.
func (a *StorageAPI) Delete(ctx context.Context, rid string) (bool, error) {
	ex, err := a.client.execute(ctx, storageDeleteProfile, call{
		method:      http.MethodDelete,
		targetName:  "rid",
		targetValue: rid,
	})
	if err != nil {
		return false, err
	}
	// the service answers with a message under "success", its presence is
	// the acknowledgement
	success, ok := ex.Projection.Fields[fieldSuccess]
	return ok && !strings.EqualFold(success, "false"), nil
}

// Bulk fetches several stored captures at once, one record per rid found.
// A malformed response body yields no records rather than an error.
func (a *StorageAPI) Bulk(ctx context.Context, rids []string) ([]StorageRecord, error) {
	if len(rids) == 0 {
		return nil, fmt.Errorf("%w: one or more rids are required", ErrInvalidArgument)
	}
	body, err := EncodeJSON(NewOptions().Set("rids", rids))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	ex, err := a.client.execute(ctx, storageBulkProfile, call{
		method:      http.MethodPost,
		body:        body,
		contentType: "application/json",
	})
	if errors.Is(err, ErrProjectionFailure) {
		slog.WarnContext(ctx, "discarding malformed bulk storage response", "status", ex.StatusCode, "err", err)
		return []StorageRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	records := make([]StorageRecord, 0, len(ex.Projection.Records))
	for _, rec := range ex.Projection.Records {
		records = append(records, storageRecordFromProjection(rec))
	}
	return records, nil
}

func storageRecordFromProjection(rec jsonstream.Record) StorageRecord {
	m := projectFields(rec.Fields)
	return storageRecordFromMetadata(m, rec.Fields[fieldBody])
}

// RIDs lists stored rids, at most limit of them unless limit is NoLimit.
// The service answers with a bare json array of strings, only the strings
// directly inside a root level array are read.
func (a *StorageAPI) RIDs(ctx context.Context, limit int) ([]string, error) {
	opts := NewOptions()
	if limit >= 0 {
		opts.Set("limit", limit)
	}
	ex, err := a.client.execute(ctx, storageRIDsProfile, call{
		method:  http.MethodGet,
		options: opts,
	})
	if err != nil {
		return nil, err
	}
	return ex.Projection.Items, nil
}

func (a *StorageAPI) TotalCount(ctx context.Context) (int, error) {
	ex, err := a.client.execute(ctx, storageTotalCountProfile, call{
		method: http.MethodGet,
	})
	if err != nil {
		return 0, err
	}
	// a missing or unparsable counter reads as zero
	count, _ := strconv.Atoi(ex.Projection.Fields[fieldTotalCount])
	return count, nil
}
