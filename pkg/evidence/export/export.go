package export

import (
	"fmt"

	"mercator-hq/perfscore/pkg/evidence"
)

// New returns the exporter for format ("json" or "csv").
func New(format string) (evidence.Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (must be json or csv)", format)
	}
}
