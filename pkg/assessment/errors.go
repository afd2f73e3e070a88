package assessment

import "errors"

var (
	// ErrNotReady is returned when the service has no rule set loaded.
	ErrNotReady = errors.New("assessment service not ready")

	// ErrInvalidInput is returned for non-finite input values.
	ErrInvalidInput = errors.New("invalid assessment input")

	// ErrMissingBinding is returned when a rule set does not define one of
	// the bound input variables.
	ErrMissingBinding = errors.New("rule set does not define bound input")

	// ErrConflictingBinding is returned when both request fields are bound
	// to the same input variable.
	ErrConflictingBinding = errors.New("input bindings conflict")
)
