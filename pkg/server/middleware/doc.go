// Package middleware provides the HTTP middleware used by the perfscore API
// server: request IDs, request logging, panic recovery and per-route
// Prometheus metrics.
//
// # Middleware Order
//
// The server applies middleware in this order (outermost first):
//
//	Recovery -> RequestID -> Logging -> Metrics -> handler
//
// Recovery is outermost so that panics anywhere below it produce a JSON 500.
// RequestID runs before Logging so that every log line for the request
// carries its request_id.
//
// # Request IDs
//
// Each request gets a UUID unless the client sends a usable X-Request-ID:
//
//	curl -H "X-Request-ID: batch-42" http://localhost:8080/v1/assess ...
//
// The ID is stored with logging.WithRequestID and echoed in the response.
package middleware
