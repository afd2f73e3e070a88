package fuzzy

import "math"

// Category is the coarse performance band derived from a score.
type Category string

const (
	CategoryHigh   Category = "high"
	CategoryMedium Category = "medium"
	CategoryLow    Category = "low"
)

// Category thresholds. Each band includes its lower bound.
const (
	HighThreshold   = 70.0
	MediumThreshold = 40.0
)

// Categorize maps a score to its band: [70, +inf) is High, [40, 70) is
// Medium and everything below 40 (including NaN) is Low.
func Categorize(score float64) Category {
	switch {
	case math.IsNaN(score):
		return CategoryLow
	case score >= HighThreshold:
		return CategoryHigh
	case score >= MediumThreshold:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

// Label returns the human-readable label.
func (c Category) Label() string {
	switch c {
	case CategoryHigh:
		return "High Performance"
	case CategoryMedium:
		return "Medium Performance"
	case CategoryLow:
		return "Low Performance"
	default:
		return "Unknown"
	}
}

// Rank orders categories from Low (0) to High (2). Unknown values rank -1.
func (c Category) Rank() int {
	switch c {
	case CategoryLow:
		return 0
	case CategoryMedium:
		return 1
	case CategoryHigh:
		return 2
	default:
		return -1
	}
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c.Rank() >= 0
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}
