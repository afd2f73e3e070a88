// Package types defines the JSON error envelope shared by the HTTP API
// handlers and middleware.
package types
