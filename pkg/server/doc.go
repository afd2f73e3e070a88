// Package server exposes the assessment service over HTTP.
//
// # Endpoints
//
//	POST /v1/assess     score one operator
//	GET  /v1/ruleset    describe the active rule set
//	GET  /v1/evidence   query recorded assessments (when evidence is enabled)
//	GET  /health        liveness
//	GET  /ready         readiness (rule set loaded, evidence storage reachable)
//	GET  /version       build information
//	GET  /metrics       Prometheus metrics (when metrics are enabled)
//
// An assessment request:
//
//	curl -s localhost:8080/v1/assess -d '{"operator_id":"op-7","operations":18,"error_rate":0.05}'
//
// returns the score, category and the full breakdown of memberships and rule
// activations. Errors use a JSON envelope:
//
//	{"error": {"message": "operations is required", "type": "invalid_request_error", "param": "operations", "code": "invalid_value"}}
//
// Evidence queries accept operator_id, category, since and until (RFC 3339),
// min_score, max_score, limit, offset, order (asc|desc) and format (json|csv).
//
// # Authentication
//
// When server.auth.enabled is set, the /v1 routes require an API key from
// server.auth.keys. With the default Authorization header the key is sent as
// a bearer token; any other configured header carries the raw key. Probes,
// version and metrics stay open. Rejected requests get a 401 envelope of
// type authentication_error.
//
// With server.rate_limit.enabled each client gets a token bucket of
// burst requests refilled at requests_per_second. The client is the API key
// name when auth is on, else the remote IP. Throttled requests get a 429
// envelope of type rate_limit_error with Retry-After set.
//
// # Lifecycle
//
//	srv := server.New(&cfg.Server, svc,
//	    server.WithLogger(tel.Logger),
//	    server.WithMetrics(tel.Metrics),
//	    server.WithHealth(tel.Health),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled, then shuts down gracefully within
// server.shutdown_timeout.
package server
