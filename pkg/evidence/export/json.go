package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/perfscore/pkg/evidence"
)

// JSONExporter exports evidence records to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes evidence records to w as a JSON array followed by a newline.
// An empty result is written as [].
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	if records == nil {
		records = []*evidence.Record{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(records); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}
