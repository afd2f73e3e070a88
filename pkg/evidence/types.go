package evidence

import (
	"context"
	"io"
	"time"

	"mercator-hq/perfscore/pkg/fuzzy"
)

// Record is an immutable audit record of one operator assessment.
// It captures the crisp inputs, the outcome, and the full inference
// breakdown so that any score can be explained after the fact.
type Record struct {
	// ID is a unique identifier for this record (UUID v4).
	ID string `json:"id"`

	// OperatorID identifies the assessed operator. It may be empty.
	OperatorID string `json:"operator_id"`

	// Inputs
	Operations float64 `json:"operations"`
	ErrorRate  float64 `json:"error_rate"`

	// Outcome
	Score    float64        `json:"score"`
	Category fuzzy.Category `json:"category"`

	// Memberships holds the fuzzified degree of each input term.
	Memberships []fuzzy.TermMembership `json:"memberships"`

	// Activations holds the firing strength of every rule, fired or not.
	Activations []fuzzy.RuleActivation `json:"activations"`

	// Rule set provenance
	RuleSet         string `json:"ruleset"`
	RuleSetVersion  string `json:"ruleset_version"`
	RuleSetChecksum string `json:"ruleset_checksum"`

	// InputHash is the SHA-256 of the canonical input tuple and the rule set
	// checksum. Identical inputs against an identical rule set hash equally.
	InputHash string `json:"input_hash"`

	// Timestamps
	EvaluatedAt time.Time `json:"evaluated_at"`
	RecordedAt  time.Time `json:"recorded_at"`

	// DurationMicros is the evaluation latency in microseconds.
	DurationMicros int64 `json:"duration_us"`
}

// FiredRules returns the names of rules with a strength above zero.
func (r *Record) FiredRules() []string {
	var names []string
	for _, a := range r.Activations {
		if a.Strength > 0 {
			names = append(names, a.Name)
		}
	}
	return names
}

// Query defines filters for retrieving evidence records.
// All filters are optional and combined with AND.
type Query struct {
	// Time range (on EvaluatedAt)
	StartTime *time.Time
	EndTime   *time.Time

	// OperatorID filters by exact operator id.
	OperatorID string

	// Category filters by performance band.
	Category fuzzy.Category

	// Score thresholds (inclusive)
	MinScore *float64
	MaxScore *float64

	// Pagination
	Limit  int // Maximum number of results (0 means no limit)
	Offset int // Skip first N results

	// SortOrder is "desc" (newest first, the default) or "asc".
	SortOrder string
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves evidence records matching the query filters.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of evidence records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteOlderThan removes records evaluated strictly before cutoff and
	// returns the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the oldest records until at most keep remain and
	// returns the number deleted.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the storage backend.
	Close() error
}

// Exporter writes evidence records to an output stream.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
