package server

import (
	"github.com/StricklySoft/bolt-gateway/pkg/bolt"
	"github.com/StricklySoft/bolt-gateway/pkg/codec"
	gwerr "github.com/StricklySoft/bolt-gateway/pkg/errors"
	"github.com/StricklySoft/bolt-gateway/pkg/executor"
	"github.com/StricklySoft/bolt-gateway/pkg/query"
)

// renderContainer builds the legacy batch response document. Successful
// statements land in results in submission order; failed statements
// contribute an entry to errors instead.
func renderContainer(rc executor.ResultContainer) (map[string]any, error) {
	results := []any{}
	errs := []any{}
	for _, result := range rc.Results {
		if result.Failed() {
			errs = append(errs, renderError(result.Err))
			continue
		}
		rendered, err := renderResult(result)
		if err != nil {
			return nil, err
		}
		results = append(results, rendered)
	}

	notifications := []any{}
	for _, note := range rc.Notifications {
		notifications = append(notifications, renderNotification(note))
	}

	return map[string]any{
		"results":       results,
		"notifications": notifications,
		"errors":        errs,
	}, nil
}

// renderResult builds one legacy result: columns, per-record data
// entries with the requested projections, and stats when asked for.
func renderResult(result executor.EagerResult) (map[string]any, error) {
	wantRow := result.Query.HasFormat(query.FormatRow)
	wantGraph := result.Query.HasFormat(query.FormatGraph)

	data := []any{}
	for _, record := range result.Records {
		entry := map[string]any{}

		if wantRow {
			row := make([]any, len(record.Values))
			meta := make([]any, len(record.Values))
			for i, value := range record.Values {
				rendered, err := codec.LegacyRow(value)
				if err != nil {
					return nil, err
				}
				row[i] = rendered
				meta[i] = codec.LegacyMeta(value)
			}
			entry["row"] = row
			entry["meta"] = meta
		}

		if wantGraph {
			collector := codec.NewGraphCollector()
			for _, value := range record.Values {
				collector.Collect(value)
			}
			graph, err := collector.Build()
			if err != nil {
				return nil, err
			}
			entry["graph"] = graph
		}

		data = append(data, entry)
	}

	columns := result.Keys
	if columns == nil {
		columns = []string{}
	}
	out := map[string]any{
		"columns": columns,
		"data":    data,
	}
	if result.Query.IncludeStats {
		out["stats"] = codec.LegacyStats(result.Summary.Counters)
	}
	return out, nil
}

// renderError builds one entry of the errors array. When the failure
// carries the server's status code it is used as the error code,
// matching what clients of the original API key on.
func renderError(e *gwerr.Error) map[string]any {
	code := string(e.Code)
	if neoCode, ok := e.Details["neo4j_code"].(string); ok && neoCode != "" {
		code = neoCode
	}
	return map[string]any{
		"code":    code,
		"message": e.Message,
	}
}

func renderNotification(n bolt.Notification) map[string]any {
	out := map[string]any{
		"code":        n.Code,
		"title":       n.Title,
		"description": n.Description,
		"severity":    n.Severity,
	}
	if n.Position != nil {
		out["position"] = map[string]any{
			"offset": n.Position.Offset,
			"line":   n.Position.Line,
			"column": n.Position.Column,
		}
	}
	return out
}
