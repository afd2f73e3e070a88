package fuzzy

import (
	"fmt"
	"math"
)

// Universe is the bounded interval [Min, Max] sampled every Step. It is used
// to discretize the output variable for aggregation and defuzzification.
type Universe struct {
	Min  float64
	Max  float64
	Step float64
}

// MaxSamples caps the number of points a universe may discretize into.
// Evaluate allocates aggregation buffers of this length.
const MaxSamples = 100_000

// NewUniverse validates the bounds and resolution. The universe must fit in
// at most MaxSamples points.
func NewUniverse(min, max, step float64) (Universe, error) {
	for _, v := range []float64{min, max, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Universe{}, &ConfigError{Kind: ErrInvalidUniverse, Message: "bounds and step must be finite"}
		}
	}
	if min >= max {
		return Universe{}, &ConfigError{
			Kind:    ErrInvalidUniverse,
			Message: fmt.Sprintf("min %g must be below max %g", min, max),
		}
	}
	span := max - min
	if math.IsInf(span, 0) {
		return Universe{}, &ConfigError{Kind: ErrInvalidUniverse, Message: "range overflows float64"}
	}
	if step <= 0 || step > span {
		return Universe{}, &ConfigError{
			Kind:    ErrInvalidUniverse,
			Message: fmt.Sprintf("step %g must be in (0, %g]", step, span),
		}
	}
	if n := span / step; math.IsInf(n, 0) || n+1 > MaxSamples {
		return Universe{}, &ConfigError{
			Kind:    ErrInvalidUniverse,
			Message: fmt.Sprintf("step %g over [%g, %g] yields more than %d samples", step, min, max, MaxSamples),
		}
	}
	return Universe{Min: min, Max: max, Step: step}, nil
}

// MustUniverse is like NewUniverse but panics on invalid arguments.
func MustUniverse(min, max, step float64) Universe {
	u, err := NewUniverse(min, max, step)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the number of samples.
func (u Universe) Len() int {
	return int(math.Round((u.Max-u.Min)/u.Step)) + 1
}

// Samples returns a fresh slice of the sample points. The last sample is
// always Max so rounding never leaves the upper bound out.
func (u Universe) Samples() []float64 {
	n := u.Len()
	out := make([]float64, n)
	for i := range out {
		out[i] = u.Min + float64(i)*u.Step
	}
	out[n-1] = u.Max
	return out
}

// Contains reports whether x lies within [Min, Max].
func (u Universe) Contains(x float64) bool {
	return x >= u.Min && x <= u.Max
}

// String returns "[min, max] step s".
func (u Universe) String() string {
	return fmt.Sprintf("[%g, %g] step %g", u.Min, u.Max, u.Step)
}
