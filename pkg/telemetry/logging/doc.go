// Package logging builds the structured loggers used across perfscore.
//
// Loggers are plain *slog.Logger values. The handler returned by New reads
// request, operator and assessment identifiers from the context passed to
// the *Context logging methods, along with the active OpenTelemetry span:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	ctx = logging.WithRequestID(ctx, id)
//	logger.InfoContext(ctx, "assessment completed", "score", 82.4)
//
// Components attach a "component" attribute with logger.With.
package logging
