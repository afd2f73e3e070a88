package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler strategies accepted in telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio" // fraction of root traces, by trace ID
)

// createSampler builds a parent-based sampler: the strategy decides root
// spans and children follow their parent.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler
	switch strategy {
	case SamplerAlways:
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio %g outside [0, 1]", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler %q (want always, never or ratio)", strategy)
	}
	return sdktrace.ParentBased(root), nil
}
