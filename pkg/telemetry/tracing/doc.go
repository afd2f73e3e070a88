// Package tracing configures OpenTelemetry tracing for perfscore.
//
// When telemetry.tracing.enabled is false, New returns a noop tracer and
// spans cost next to nothing. Otherwise spans are batched to an OTLP gRPC
// collector with the configured sampler (always, never or ratio), each
// wrapped in ParentBased so incoming sampled traces stay sampled.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	defer tracer.Shutdown(ctx)
//
//	ctx, span := tracer.Start(ctx, "assessment.evaluate")
//	defer span.End()
package tracing
