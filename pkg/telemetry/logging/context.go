package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey contextKey = "request_id"

	// OperatorIDKey is the context key for the operator being assessed.
	OperatorIDKey contextKey = "operator_id"

	// AssessmentIDKey is the context key for assessment IDs.
	AssessmentIDKey contextKey = "assessment_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithOperatorID adds an operator identifier to the context.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, OperatorIDKey, operatorID)
}

// GetOperatorID retrieves the operator identifier from the context.
func GetOperatorID(ctx context.Context) string {
	if id, ok := ctx.Value(OperatorIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAssessmentID adds an assessment ID to the context.
func WithAssessmentID(ctx context.Context, assessmentID string) context.Context {
	return context.WithValue(ctx, AssessmentIDKey, assessmentID)
}

// GetAssessmentID retrieves the assessment ID from the context.
func GetAssessmentID(ctx context.Context) string {
	if id, ok := ctx.Value(AssessmentIDKey).(string); ok {
		return id
	}
	return ""
}

// contextAttrs extracts the known identifiers from ctx, including the
// trace and span IDs of an active OpenTelemetry span.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if id := GetRequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), id))
	}
	if id := GetOperatorID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(OperatorIDKey), id))
	}
	if id := GetAssessmentID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(AssessmentIDKey), id))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return attrs
}
