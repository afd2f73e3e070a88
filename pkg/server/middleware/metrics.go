package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder receives per-request measurements. *metrics.Collector
// satisfies it.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Metrics records the method, status and latency of each request under the
// fixed route label. The route is passed in rather than read from the URL so
// that label cardinality stays bounded.
func Metrics(recorder HTTPRecorder, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			recorder.RecordHTTPRequest(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
