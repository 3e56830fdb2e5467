package export

import (
	"encoding/json"
	"time"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// JSONDump renders the parsed document whole: navigation tree, flat
// endpoint list and category index.
func JSONDump(doc *catalog.Document, name, source string, now time.Time) ([]byte, error) {
	payload := map[string]interface{}{
		"name":             name,
		"source":           source,
		"export_timestamp": now.Format(time.RFC3339),
		"navigation":       doc.Tree,
		"endpoints":        doc.Endpoints,
		"categories":       doc.Categories(),
		"total_endpoints":  len(doc.Endpoints),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode documentation dump")
	}
	return data, nil
}

// Report summarizes the document: totals, per-method counts and the
// endpoints grouped by method.
func Report(doc *catalog.Document, now time.Time) ([]byte, error) {
	methodsCount := make(map[string]int)
	byMethod := make(map[string][]catalog.Endpoint)
	for _, ep := range doc.Endpoints {
		methodsCount[ep.Method]++
		byMethod[ep.Method] = append(byMethod[ep.Method], ep)
	}

	payload := map[string]interface{}{
		"summary": map[string]interface{}{
			"total_endpoints":  len(doc.Endpoints),
			"total_categories": len(doc.Categories()),
			"export_date":      now.Format(time.RFC3339),
			"methods_count":    methodsCount,
		},
		"categories":          doc.Categories(),
		"endpoints_by_method": byMethod,
		"detailed_endpoints":  doc.Endpoints,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeUnknown, err, "encode documentation report")
	}
	return data, nil
}
