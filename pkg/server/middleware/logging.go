package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter records the status and body size sent through it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int64
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default to 200
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging logs one line per request. The request and trace IDs come from the
// logger's context handler; api_key is the authenticated key name, when set.
// Probe and metrics scrapes log at DEBUG so they do not drown out API
// traffic. 4xx responses log at WARN and 5xx at ERROR.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			logger.DebugContext(r.Context(), "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			var keyName string
			next.ServeHTTP(rw, r.WithContext(withKeySlot(r.Context(), &keyName)))

			level := slog.LevelInfo
			switch {
			case rw.statusCode >= 500:
				level = slog.LevelError
			case rw.statusCode >= 400:
				level = slog.LevelWarn
			case !strings.HasPrefix(r.URL.Path, "/v1/"):
				level = slog.LevelDebug
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"bytes", rw.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			if keyName != "" {
				attrs = append(attrs, "api_key", keyName)
			}
			logger.Log(r.Context(), level, "request completed", attrs...)
		})
	}
}
