package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/perfscore/pkg/evidence"
)

// CSVExporter exports evidence records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes evidence records to w in CSV format. Fired rule names are
// joined with ";" and memberships are embedded as a JSON array.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.Record, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		row, err := recordToRow(record)
		if err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(row); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// Header returns the CSV header row.
func Header() []string {
	return []string{
		"id", "operator_id",
		"operations", "error_rate",
		"score", "category",
		"fired_rules", "memberships",
		"ruleset", "ruleset_version", "input_hash",
		"evaluated_at", "recorded_at", "duration_us",
	}
}

// recordToRow converts an evidence record to a CSV row.
func recordToRow(record *evidence.Record) ([]string, error) {
	memberships, err := json.Marshal(record.Memberships)
	if err != nil {
		return nil, err
	}

	return []string{
		record.ID,
		record.OperatorID,
		formatFloat(record.Operations),
		formatFloat(record.ErrorRate),
		formatFloat(record.Score),
		string(record.Category),
		strings.Join(record.FiredRules(), ";"),
		string(memberships),
		record.RuleSet,
		record.RuleSetVersion,
		record.InputHash,
		formatTime(record.EvaluatedAt),
		formatTime(record.RecordedAt),
		strconv.FormatInt(record.DurationMicros, 10),
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
