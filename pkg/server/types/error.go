package types

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response:
//
//	{"error": {"message": "...", "type": "...", "param": "...", "code": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure. Type selects the HTTP status; Code is a
// finer machine-readable reason within that type.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	// Param names the request field at fault, when there is one.
	Param string `json:"param,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeRateLimit          = "rate_limit_error"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// Error codes.
const (
	CodeInvalidValue        = "invalid_value"
	CodeInvalidJSON         = "invalid_json"
	CodeRequestTooLarge     = "request_too_large"
	CodeRuleSetNotLoaded    = "ruleset_not_loaded"
	CodeEvidenceDisabled    = "evidence_disabled"
	CodeMissingAPIKey       = "missing_api_key"
	CodeInvalidAPIKey       = "invalid_api_key"
	CodeRateLimitExceeded   = "rate_limit_exceeded"
	CodeConcurrencyExceeded = "concurrency_limit_exceeded"
	CodeInternalError       = "internal_error"
)

var statusByType = map[string]int{
	ErrorTypeInvalidRequest:     http.StatusBadRequest,
	ErrorTypeAuthentication:     http.StatusUnauthorized,
	ErrorTypeNotFound:           http.StatusNotFound,
	ErrorTypeRateLimit:          http.StatusTooManyRequests,
	ErrorTypeServerError:        http.StatusInternalServerError,
	ErrorTypeServiceUnavailable: http.StatusServiceUnavailable,
}

// NewErrorResponse builds an envelope from its parts.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errorType,
		Param:   param,
		Code:    code,
	}}
}

// NewInvalidRequestError reports a bad field or body (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewAuthenticationError reports a missing or rejected API key (401).
func NewAuthenticationError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeAuthentication, "", code)
}

func NewNotFoundError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "", code)
}

// NewRateLimitError reports a throttled request (429).
func NewRateLimitError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeRateLimit, "", code)
}

// NewServerError hides the cause behind a generic 500. Log the cause first.
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewServiceUnavailableError reports that the service cannot answer yet (503).
func NewServiceUnavailableError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", code)
}

// HTTPStatusCode maps the error type to a status. Unknown types are 500.
func (e *ErrorDetail) HTTPStatusCode() int {
	if code, ok := statusByType[e.Type]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Write sends the envelope with its status. Headers the caller set beforehand
// are kept.
func (r *ErrorResponse) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.Error.HTTPStatusCode())
	_ = json.NewEncoder(w).Encode(r)
}
