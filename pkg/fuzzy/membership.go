package fuzzy

import (
	"fmt"
	"math"
)

// Shape identifies the kind of membership function.
type Shape string

const (
	ShapeTriangular  Shape = "triangular"
	ShapeTrapezoidal Shape = "trapezoidal"
)

// MembershipFunction maps a crisp value to a degree of membership in [0, 1].
// Implementations are total: NaN and values outside the support yield 0.
type MembershipFunction interface {
	// Degree returns the membership degree of x.
	Degree(x float64) float64

	// Shape returns the function kind.
	Shape() Shape

	// Points returns the control points in ascending order.
	Points() []float64
}

// Triangular is a triangle with feet at A and C and its peak at B.
// A == B or B == C produce a vertical edge on that side.
type Triangular struct {
	A, B, C float64
}

// NewTriangular validates a <= b <= c and returns the function.
func NewTriangular(a, b, c float64) (Triangular, error) {
	if err := checkPoints(ShapeTriangular, a, b, c); err != nil {
		return Triangular{}, err
	}
	return Triangular{A: a, B: b, C: c}, nil
}

// MustTriangular is like NewTriangular but panics on malformed points.
// It is intended for static tables.
func MustTriangular(a, b, c float64) Triangular {
	t, err := NewTriangular(a, b, c)
	if err != nil {
		panic(err)
	}
	return t
}

// Degree implements MembershipFunction.
func (t Triangular) Degree(x float64) float64 {
	switch {
	case math.IsNaN(x), x < t.A, x > t.C:
		return 0
	case x == t.B:
		return 1
	case x < t.B:
		// x >= A and x < B, so B > A here.
		return clamp01((x - t.A) / (t.B - t.A))
	default:
		// x > B and x <= C, so C > B here.
		return clamp01((t.C - x) / (t.C - t.B))
	}
}

// Shape implements MembershipFunction.
func (t Triangular) Shape() Shape { return ShapeTriangular }

// Points implements MembershipFunction.
func (t Triangular) Points() []float64 { return []float64{t.A, t.B, t.C} }

// String returns a compact representation such as "triangular(0, 0, 8)".
func (t Triangular) String() string {
	return fmt.Sprintf("%s(%g, %g, %g)", ShapeTriangular, t.A, t.B, t.C)
}

// Trapezoidal rises over [A, B], holds 1 over [B, C] and falls over [C, D].
type Trapezoidal struct {
	A, B, C, D float64
}

// NewTrapezoidal validates a <= b <= c <= d and returns the function.
func NewTrapezoidal(a, b, c, d float64) (Trapezoidal, error) {
	if err := checkPoints(ShapeTrapezoidal, a, b, c, d); err != nil {
		return Trapezoidal{}, err
	}
	return Trapezoidal{A: a, B: b, C: c, D: d}, nil
}

// MustTrapezoidal is like NewTrapezoidal but panics on malformed points.
func MustTrapezoidal(a, b, c, d float64) Trapezoidal {
	t, err := NewTrapezoidal(a, b, c, d)
	if err != nil {
		panic(err)
	}
	return t
}

// Degree implements MembershipFunction.
func (t Trapezoidal) Degree(x float64) float64 {
	switch {
	case math.IsNaN(x), x < t.A, x > t.D:
		return 0
	case x >= t.B && x <= t.C:
		return 1
	case x < t.B:
		return clamp01((x - t.A) / (t.B - t.A))
	default:
		return clamp01((t.D - x) / (t.D - t.C))
	}
}

// Shape implements MembershipFunction.
func (t Trapezoidal) Shape() Shape { return ShapeTrapezoidal }

// Points implements MembershipFunction.
func (t Trapezoidal) Points() []float64 { return []float64{t.A, t.B, t.C, t.D} }

// String returns a compact representation such as "trapezoidal(0, 1, 2, 3)".
func (t Trapezoidal) String() string {
	return fmt.Sprintf("%s(%g, %g, %g, %g)", ShapeTrapezoidal, t.A, t.B, t.C, t.D)
}

// NewMembershipFunction builds a function from its shape name and control points.
// It is used by declarative loaders.
func NewMembershipFunction(shape Shape, points []float64) (MembershipFunction, error) {
	switch shape {
	case ShapeTriangular:
		if len(points) != 3 {
			return nil, &ConfigError{
				Kind:    ErrMalformedMembershipFunction,
				Message: fmt.Sprintf("triangular needs 3 points, got %d", len(points)),
			}
		}
		return NewTriangular(points[0], points[1], points[2])
	case ShapeTrapezoidal:
		if len(points) != 4 {
			return nil, &ConfigError{
				Kind:    ErrMalformedMembershipFunction,
				Message: fmt.Sprintf("trapezoidal needs 4 points, got %d", len(points)),
			}
		}
		return NewTrapezoidal(points[0], points[1], points[2], points[3])
	default:
		return nil, &ConfigError{
			Kind:    ErrMalformedMembershipFunction,
			Message: fmt.Sprintf("unsupported shape %q", shape),
		}
	}
}

func checkPoints(shape Shape, points ...float64) error {
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return &ConfigError{
				Kind:    ErrMalformedMembershipFunction,
				Message: fmt.Sprintf("%s point %d is not finite", shape, i),
			}
		}
		if i > 0 && points[i-1] > p {
			return &ConfigError{
				Kind:    ErrMalformedMembershipFunction,
				Message: fmt.Sprintf("%s points must be non-decreasing, got %v", shape, points),
			}
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
