package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/telemetry/health"
	"mercator-hq/perfscore/pkg/telemetry/logging"
	"mercator-hq/perfscore/pkg/telemetry/metrics"
	"mercator-hq/perfscore/pkg/telemetry/tracing"
)

// Telemetry bundles the observability components of a running server.
type Telemetry struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Health  *health.Checker
}

// Option configures New.
type Option func(*options)

type options struct {
	logWriter     io.Writer
	tracerOptions []tracing.Option
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) {
		o.logWriter = w
	}
}

// WithTracerOptions passes options through to tracing.New.
func WithTracerOptions(opts ...tracing.Option) Option {
	return func(o *options) {
		o.tracerOptions = append(o.tracerOptions, opts...)
	}
}

// New builds every component. Metrics use a fresh registry; when metrics
// are disabled the collector is nil and records nothing.
func New(cfg *config.TelemetryConfig, version string, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Writer:    o.logWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	tracerOpts := append([]tracing.Option{tracing.WithServiceVersion(version)}, o.tracerOptions...)
	tracer, err := tracing.New(&cfg.Tracing, tracerOpts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
	}

	return &Telemetry{
		Logger:  logger,
		Metrics: collector,
		Tracer:  tracer,
		Health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}
