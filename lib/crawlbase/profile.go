package crawlbase

import (
	"net/http"
	"slices"

	"crawlbase/lib/jsonstream"
)

type Format string

const (
	FormatNone Format = ""
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// endpointProfile configures the shared extraction pipeline for one call
// surface.
type endpointProfile struct {
	name    string
	path    string
	methods []string
	// format overrides whatever the caller asked for when forced is set
	format Format
	forced bool
	// binary bodies are copied to a file instead of read as text
	binary bool
	spec   jsonstream.Spec
}

func (p endpointProfile) allows(method string) bool {
	return slices.Contains(p.methods, method)
}

func (p endpointProfile) resolveFormat(requested Format) Format {
	if p.forced {
		return p.format
	}
	return requested
}

var metadataFields = []string{
	fieldOriginalStatus,
	fieldCBStatus,
	fieldPCStatus,
	fieldURL,
	fieldStorageURL,
}

var (
	crawlingProfile = endpointProfile{
		name:    "crawling",
		path:    "/",
		methods: []string{http.MethodGet, http.MethodPost},
		spec:    jsonstream.Spec{Fields: metadataFields},
	}

	scraperProfile = endpointProfile{
		name:    "scraper",
		path:    "/scraper",
		methods: []string{http.MethodGet},
		format:  FormatJSON,
		forced:  true,
		spec: jsonstream.Spec{
			Fields: append(slices.Clone(metadataFields), fieldRemainingRequests),
			Raw:    []string{fieldBody},
		},
	}

	screenshotsProfile = endpointProfile{
		name:    "screenshots",
		path:    "/screenshots",
		methods: []string{http.MethodGet},
		format:  FormatNone,
		forced:  true,
		binary:  true,
	}

	storageGetProfile = endpointProfile{
		name:    "storage",
		path:    "/storage",
		methods: []string{http.MethodGet},
		format:  FormatNone,
		forced:  true,
	}

	storageDeleteProfile = endpointProfile{
		name:    "storage:delete",
		path:    "/storage",
		methods: []string{http.MethodDelete},
		format:  FormatJSON,
		forced:  true,
		spec:    jsonstream.Spec{Fields: []string{fieldSuccess}},
	}

	storageBulkProfile = endpointProfile{
		name:    "storage:bulk",
		path:    "/storage/bulk",
		methods: []string{http.MethodPost},
		format:  FormatJSON,
		forced:  true,
		spec: jsonstream.Spec{
			List: true,
			RecordFields: []string{
				fieldOriginalStatus,
				fieldCBStatus,
				fieldPCStatus,
				fieldURL,
				fieldRID,
				fieldStoredAt,
				fieldBody,
			},
		},
	}

	storageRIDsProfile = endpointProfile{
		name:    "storage:rids",
		path:    "/storage/rids",
		methods: []string{http.MethodGet},
		format:  FormatJSON,
		forced:  true,
		spec:    jsonstream.Spec{List: true},
	}

	storageTotalCountProfile = endpointProfile{
		name:    "storage:total_count",
		path:    "/storage/total_count",
		methods: []string{http.MethodGet},
		format:  FormatJSON,
		forced:  true,
		spec:    jsonstream.Spec{Fields: []string{fieldTotalCount}},
	}

	leadsProfile = endpointProfile{
		name:    "leads",
		path:    "/leads",
		methods: []string{http.MethodGet},
		format:  FormatJSON,
		forced:  true,
		spec: jsonstream.Spec{
			Fields:       []string{fieldSuccess, fieldRemainingRequests, fieldDomain},
			List:         true,
			Anchor:       "leads",
			RecordFields: []string{"email"},
			RecordLists:  []string{"sources"},
		},
	}
)
