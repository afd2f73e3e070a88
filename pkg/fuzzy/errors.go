package fuzzy

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for configuration problems. Evaluation never returns errors.
var (
	// ErrUnknownTerm is returned when a rule or lookup references a variable
	// or term label that is not defined.
	ErrUnknownTerm = errors.New("unknown term")

	// ErrMalformedMembershipFunction is returned when control points violate
	// their ordering invariant or are not finite.
	ErrMalformedMembershipFunction = errors.New("malformed membership function")

	// ErrDuplicateTerm is returned when two terms of one variable share a label.
	ErrDuplicateTerm = errors.New("duplicate term")

	// ErrInvalidUniverse is returned for empty, inverted or non-finite universes.
	ErrInvalidUniverse = errors.New("invalid universe")

	// ErrInvalidConfig covers structural problems such as missing names or
	// an empty rule list.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError describes a single configuration violation.
type ConfigError struct {
	Kind     error  // One of the sentinel errors above
	Variable string // Variable involved (optional)
	Term     string // Term label involved (optional)
	Rule     string // Rule involved (optional)
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Rule != "" {
		fmt.Fprintf(&sb, " in rule %q", e.Rule)
	}
	switch {
	case e.Variable != "" && e.Term != "":
		fmt.Fprintf(&sb, " (%s.%s)", e.Variable, e.Term)
	case e.Variable != "":
		fmt.Fprintf(&sb, " (%s)", e.Variable)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Unwrap returns the sentinel kind so errors.Is matches it.
func (e *ConfigError) Unwrap() error {
	return e.Kind
}

// ErrorList accumulates configuration errors instead of failing on the first one.
type ErrorList struct {
	Errors []*ConfigError
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *ConfigError) {
	el.Errors = append(el.Errors, err)
}

// Addf creates and appends a ConfigError.
func (el *ErrorList) Addf(kind error, variable, term, rule, format string, args ...any) {
	el.Add(&ConfigError{
		Kind:     kind,
		Variable: variable,
		Term:     term,
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Merge appends err to the list. ConfigErrors and ErrorLists are flattened;
// any other error is recorded as ErrInvalidConfig.
func (el *ErrorList) Merge(err error) {
	if err == nil {
		return
	}
	var list *ErrorList
	if errors.As(err, &list) {
		el.Errors = append(el.Errors, list.Errors...)
		return
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		el.Add(ce)
		return
	}
	el.Add(&ConfigError{Kind: ErrInvalidConfig, Message: err.Error()})
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Error implements the error interface.
func (el *ErrorList) Error() string {
	if len(el.Errors) == 1 {
		return el.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d configuration errors:", len(el.Errors))
	for _, err := range el.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes every contained error to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	errs := make([]error, len(el.Errors))
	for i, err := range el.Errors {
		errs[i] = err
	}
	return errs
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}
