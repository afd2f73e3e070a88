package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/perfscore/pkg/server/types"
)

// Recovery turns a handler panic into a logged stack trace and a generic 500
// envelope. http.ErrAbortHandler is re-raised so net/http can drop the
// connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "handler panicked",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				types.NewServerError("internal error").Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
