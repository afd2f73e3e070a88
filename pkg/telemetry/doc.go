// Package telemetry wires logging, metrics, tracing and health checks from
// one TelemetryConfig.
//
//	tel, err := telemetry.New(&cfg.Telemetry, version)
//	defer tel.Shutdown(ctx)
//
//	tel.Logger.Info("rule set loaded", "rules", 5)
//	tel.Metrics.RecordAssessment("high", 82.4, d, fired)
//	ctx, span := tel.Tracer.Start(ctx, "assessment.evaluate")
//
// The subpackages can be used on their own; the CLI commands that only
// evaluate locally build just a logger.
package telemetry
