package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/perfscore/pkg/telemetry/logging"
)

const (
	// RequestIDHeader is the HTTP header for request ID.
	RequestIDHeader = "X-Request-ID"

	// maxRequestIDLength bounds client-supplied request IDs.
	maxRequestIDLength = 128
)

// RequestID assigns a request ID to each request and adds it to the context
// and response headers. A client-provided X-Request-ID is reused when it is
// non-empty and not longer than 128 bytes.
//
// The request ID is:
//   - Added to the request context (see logging.GetRequestID)
//   - Included in the X-Request-ID response header
//   - Attached to every log record written with the request context
//
// Example usage:
//
//	handler = RequestID(handler)
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
