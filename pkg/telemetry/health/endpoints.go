package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo is the body of /version.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// LivenessHandler answers 200 for as long as the process can serve at all.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return probe(func(r *http.Request) (int, any) {
		return http.StatusOK, c.CheckLiveness(r.Context())
	})
}

// ReadinessHandler answers 200 when every critical check passes, degraded
// optional checks included, and 503 otherwise. A degraded body looks like:
//
//	{"status": "degraded",
//	 "checks": {"ruleset": {"status": "ok", "critical": true},
//	            "evidence": {"status": "unhealthy", "message": "database is locked"}},
//	 "timestamp": "..."}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return probe(func(r *http.Request) (int, any) {
		status := c.CheckReadiness(r.Context())
		if !status.Ready() {
			return http.StatusServiceUnavailable, status
		}
		return http.StatusOK, status
	})
}

// VersionHandler serves fixed build information.
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	return probe(func(*http.Request) (int, any) { return http.StatusOK, info })
}

// probe adapts fn to a GET/HEAD-only JSON handler. HEAD gets headers only.
func probe(fn func(*http.Request) (int, any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		code, body := fn(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}
