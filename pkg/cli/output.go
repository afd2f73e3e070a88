package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates s against the formats a command supports. An empty
// string selects FormatText.
func ParseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	if s == "" {
		s = string(FormatText)
	}
	f := OutputFormat(strings.ToLower(s))
	if !slices.Contains(allowed, f) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return "", NewConfigError("format", fmt.Sprintf("unsupported format %q (want one of: %s)", s, strings.Join(names, ", ")))
	}
	return f, nil
}

// TextWriter is implemented by results with a human-readable rendering.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Tabular is implemented by results that can be rendered as CSV.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text. Values implementing TextWriter
// render themselves; anything else is printed with %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	if tw, ok := data.(TextWriter); ok {
		return tw.WriteText(w)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats Tabular values as CSV.
type CSVFormatter struct {
	// OmitHeader skips the header row.
	OmitHeader bool
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		return fmt.Errorf("CSV output is not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if !f.OmitHeader {
		if err := csvWriter.Write(t.Header()); err != nil {
			return err
		}
	}
	if err := csvWriter.WriteAll(t.Rows()); err != nil {
		return err
	}
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
