package ruleset

import (
	"fmt"
	"strings"
)

// ErrorType categorizes rule-set loading errors.
type ErrorType string

const (
	ErrorTypeIO         ErrorType = "io"         // File could not be read
	ErrorTypeSyntax     ErrorType = "syntax"     // YAML syntax error
	ErrorTypeStructural ErrorType = "structural" // Missing or malformed fields
)

// ParseError is a rule-set error with its source location.
type ParseError struct {
	Type    ErrorType
	Message string
	File    string
	Line    int
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Type, e.Message)
	if e.File != "" {
		sb.WriteString(" (")
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseErrors collects every structural problem found in one file.
type ParseErrors []*ParseError

// Error implements the error interface.
func (pe ParseErrors) Error() string {
	if len(pe) == 1 {
		return pe[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "found %d error(s):", len(pe))
	for _, e := range pe {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes every contained error.
func (pe ParseErrors) Unwrap() []error {
	errs := make([]error, len(pe))
	for i, e := range pe {
		errs[i] = e
	}
	return errs
}
