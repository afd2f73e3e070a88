package tracing

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/perfscore/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// instrumentationName names the tracer used by every perfscore component.
const instrumentationName = "mercator-hq/perfscore"

// Tracer wraps the OpenTelemetry tracer and its provider.
type Tracer struct {
	config   *config.TracingConfig
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	enabled  bool
}

// Option configures New.
type Option func(*options)

type options struct {
	exporter       sdktrace.SpanExporter
	serviceVersion string
	setGlobal      bool
}

// WithExporter replaces the OTLP exporter. Spans are exported synchronously,
// which suits tests using an in-memory exporter.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.exporter = exporter
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(o *options) {
		o.serviceVersion = version
	}
}

// WithoutGlobal keeps the provider and propagator out of the otel globals.
func WithoutGlobal() Option {
	return func(o *options) {
		o.setGlobal = false
	}
}

// New creates a Tracer. When tracing is disabled a noop tracer is returned.
//
// The tracer must be shut down when no longer needed:
//
//	defer tracer.Shutdown(context.Background())
func New(cfg *config.TracingConfig, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}

	o := &options{serviceVersion: "dev", setGlobal: true}
	for _, opt := range opts {
		opt(o)
	}

	t := &Tracer{
		config:  cfg,
		enabled: cfg.Enabled,
	}

	if !cfg.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return t, nil
	}

	sampler, err := createSampler(cfg.Sampler, cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if o.exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithSyncer(o.exporter))
	} else {
		exporter, err := createOTLPExporter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	t.provider = sdktrace.NewTracerProvider(providerOpts...)

	if o.setGlobal {
		otel.SetTracerProvider(t.provider)
		otel.SetTextMapPropagator(
			propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			),
		)
	}

	t.tracer = t.provider.Tracer(instrumentationName)
	return t, nil
}

// Noop returns a disabled tracer.
func Noop() *Tracer {
	return &Tracer{
		config: &config.TracingConfig{},
		tracer: noop.NewTracerProvider().Tracer(instrumentationName),
	}
}

// Start creates a span as a child of any span in ctx.
//
//	ctx, span := tracer.Start(ctx, "assessment.evaluate")
//	defer span.End()
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName).Start(ctx, name, opts...)
	}
	return t.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and shuts down the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || !t.enabled || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// createOTLPExporter creates an OTLP gRPC exporter. The connection is
// established lazily so an unreachable collector does not block startup.
func createOTLPExporter(cfg *config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(instrumentationName)),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// TraceID returns the trace ID from the context, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SetError marks the span as failed and records the error.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
