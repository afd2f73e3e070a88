package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "perfscore.*" namespace.
const (
	// Assessment attributes
	AttrOperatorID   = "perfscore.operator_id"
	AttrAssessmentID = "perfscore.assessment_id"
	AttrOperations   = "perfscore.input.operations"
	AttrErrorRate    = "perfscore.input.error_rate"
	AttrScore        = "perfscore.score"
	AttrCategory     = "perfscore.category"
	AttrRulesFired   = "perfscore.rules_fired"

	// Rule set attributes
	AttrRuleSetName     = "perfscore.ruleset.name"
	AttrRuleSetVersion  = "perfscore.ruleset.version"
	AttrRuleSetChecksum = "perfscore.ruleset.checksum"
	AttrRuleSetSource   = "perfscore.ruleset.source"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// SetAssessmentInputs records the inputs of an assessment on a span.
func SetAssessmentInputs(span trace.Span, operatorID string, operations, errorRate float64) {
	span.SetAttributes(
		attribute.String(AttrOperatorID, operatorID),
		attribute.Float64(AttrOperations, operations),
		attribute.Float64(AttrErrorRate, errorRate),
	)
}

// SetAssessmentResult records the outcome of an assessment on a span.
func SetAssessmentResult(span trace.Span, assessmentID string, score float64, category string, fired []string) {
	span.SetAttributes(
		attribute.String(AttrAssessmentID, assessmentID),
		attribute.Float64(AttrScore, score),
		attribute.String(AttrCategory, category),
		attribute.StringSlice(AttrRulesFired, fired),
	)
}

// SetRuleSetAttributes records which rule set served a span.
func SetRuleSetAttributes(span trace.Span, name, version, checksum, source string) {
	span.SetAttributes(
		attribute.String(AttrRuleSetName, name),
		attribute.String(AttrRuleSetVersion, version),
		attribute.String(AttrRuleSetChecksum, checksum),
		attribute.String(AttrRuleSetSource, source),
	)
}
