package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"mercator-hq/perfscore/pkg/server/types"
)

// APIKey is one credential accepted by APIKeyAuth.
type APIKey struct {
	// Name identifies the client in logs. It is never the key itself.
	Name    string
	Key     string
	Enabled bool
}

// APIKeyValidator validates API keys against a configured set of keys.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewAPIKeyValidator creates a validator for keys.
func NewAPIKeyValidator(keys []APIKey) *APIKeyValidator {
	m := make(map[string]*APIKey, len(keys))
	for i := range keys {
		k := keys[i]
		m[k.Key] = &k
	}
	return &APIKeyValidator{keys: m}
}

// Validate returns the key's entry if it is known and enabled.
func (v *APIKeyValidator) Validate(key string) (*APIKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok || !info.Enabled {
		return nil, false
	}
	return info, true
}

// SetEnabled enables or disables a key. It reports whether the key exists.
func (v *APIKeyValidator) SetEnabled(key string, enabled bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	info, ok := v.keys[key]
	if ok {
		info.Enabled = enabled
	}
	return ok
}

type apiKeyNameKey struct{}

// keySlotKey carries a *string that outer middleware reads after the request
// to learn which key authenticated it.
type keySlotKey struct{}

func withKeySlot(ctx context.Context, slot *string) context.Context {
	return context.WithValue(ctx, keySlotKey{}, slot)
}

// APIKeyName returns the name of the key that authenticated the request.
func APIKeyName(ctx context.Context) string {
	name, _ := ctx.Value(apiKeyNameKey{}).(string)
	return name
}

// APIKeyAuth rejects requests that do not carry a valid key in header.
// For the Authorization header the value must use the Bearer scheme; any
// other header carries the raw key.
func APIKeyAuth(validator *APIKeyValidator, header string, logger *slog.Logger) func(http.Handler) http.Handler {
	if header == "" {
		header = "Authorization"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r, header)
			if key == "" {
				logger.WarnContext(r.Context(), "missing API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeAuthError(w, types.NewAuthenticationError("Missing API key.", types.CodeMissingAPIKey))
				return
			}

			info, ok := validator.Validate(key)
			if !ok {
				logger.WarnContext(r.Context(), "invalid API key",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeAuthError(w, types.NewAuthenticationError("Invalid API key.", types.CodeInvalidAPIKey))
				return
			}

			logger.DebugContext(r.Context(), "API key authenticated", "key_name", info.Name, "path", r.URL.Path)
			if slot, ok := r.Context().Value(keySlotKey{}).(*string); ok {
				*slot = info.Name
			}
			ctx := context.WithValue(r.Context(), apiKeyNameKey{}, info.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractAPIKey(r *http.Request, header string) string {
	value := strings.TrimSpace(r.Header.Get(header))
	if !strings.EqualFold(header, "Authorization") {
		return value
	}
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, resp *types.ErrorResponse) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="perfscore"`)
	resp.Write(w)
}
