package query

import (
	"fmt"
	"math"

	"mercator-hq/perfscore/pkg/evidence"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validate validates a query and returns an error if any parameters are invalid.
// A maxLimit of zero or less falls back to MaxLimit.
func Validate(q *evidence.Query, maxLimit int) error {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	// Validate limit
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > maxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", maxLimit, q.Limit))
	}

	// Validate offset
	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	// Validate sort order
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.Category != "" && !q.Category.Valid() {
		return evidence.NewQueryError(q, fmt.Errorf("invalid category: %s (must be 'high', 'medium', or 'low')", q.Category))
	}

	// Validate time range
	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	// Any finite bound is accepted; the output universe need not be [0, 100].
	if q.MinScore != nil && !finite(*q.MinScore) {
		return evidence.NewQueryError(q, fmt.Errorf("min_score must be a finite number, got %g", *q.MinScore))
	}
	if q.MaxScore != nil && !finite(*q.MaxScore) {
		return evidence.NewQueryError(q, fmt.Errorf("max_score must be a finite number, got %g", *q.MaxScore))
	}
	if q.MinScore != nil && q.MaxScore != nil {
		if *q.MinScore > *q.MaxScore {
			return evidence.NewQueryError(q, fmt.Errorf("min_score must be <= max_score"))
		}
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ApplyDefaults applies default values to a query. A defaultLimit of zero or
// less falls back to DefaultLimit.
func ApplyDefaults(q *evidence.Query, defaultLimit int) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	if q.Limit == 0 {
		q.Limit = defaultLimit
	}

	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
