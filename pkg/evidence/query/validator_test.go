package query

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/fuzzy"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	minScore := 40.0
	maxScore := 70.0
	wide := 150.0
	negative := -1.0
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name     string
		query    *evidence.Query
		maxLimit int
		wantErr  bool
		errMsg   string
	}{
		{
			name: "valid query with all filters",
			query: &evidence.Query{
				StartTime:  &past,
				EndTime:    &now,
				OperatorID: "op-17",
				Category:   fuzzy.CategoryMedium,
				MinScore:   &minScore,
				MaxScore:   &maxScore,
				Limit:      100,
				SortOrder:  "desc",
			},
		},
		{
			name:  "valid query with minimal filters",
			query: &evidence.Query{Limit: 50},
		},
		{
			name:    "negative limit",
			query:   &evidence.Query{Limit: -1},
			wantErr: true,
			errMsg:  "limit must be >= 0",
		},
		{
			name:    "limit exceeds max",
			query:   &evidence.Query{Limit: MaxLimit + 1},
			wantErr: true,
			errMsg:  "limit must be <=",
		},
		{
			name:     "limit exceeds configured max",
			query:    &evidence.Query{Limit: 51},
			maxLimit: 50,
			wantErr:  true,
			errMsg:   "limit must be <= 50",
		},
		{
			name:    "negative offset",
			query:   &evidence.Query{Offset: -1},
			wantErr: true,
			errMsg:  "offset must be >= 0",
		},
		{
			name:    "invalid sort order",
			query:   &evidence.Query{SortOrder: "sideways"},
			wantErr: true,
			errMsg:  "invalid sort order",
		},
		{
			name:    "unknown category",
			query:   &evidence.Query{Category: "stellar"},
			wantErr: true,
			errMsg:  "invalid category",
		},
		{
			name:    "inverted time range",
			query:   &evidence.Query{StartTime: &now, EndTime: &past},
			wantErr: true,
			errMsg:  "start_time must be before end_time",
		},
		{
			name:    "min score above max score",
			query:   &evidence.Query{MinScore: &maxScore, MaxScore: &minScore},
			wantErr: true,
			errMsg:  "min_score must be <= max_score",
		},
		{
			name:  "scores beyond 0-100 for a wider output universe",
			query: &evidence.Query{MinScore: &negative, MaxScore: &wide},
		},
		{
			name:    "NaN min score",
			query:   &evidence.Query{MinScore: &nan},
			wantErr: true,
			errMsg:  "min_score must be a finite number",
		},
		{
			name:    "NaN max score",
			query:   &evidence.Query{MinScore: &minScore, MaxScore: &nan},
			wantErr: true,
			errMsg:  "max_score must be a finite number",
		},
		{
			name:    "infinite max score",
			query:   &evidence.Query{MaxScore: &inf},
			wantErr: true,
			errMsg:  "max_score must be a finite number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query, tt.maxLimit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.errMsg)
			}
			var qerr *evidence.QueryError
			if !errors.As(err, &qerr) {
				t.Errorf("Validate() error type = %T, want *evidence.QueryError", err)
			} else if qerr.Query != tt.query {
				t.Error("QueryError does not reference the failing query")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name          string
		query         *evidence.Query
		defaultLimit  int
		expectedLimit int
		expectedOrder string
	}{
		{
			name:          "empty query gets all defaults",
			query:         &evidence.Query{},
			expectedLimit: DefaultLimit,
			expectedOrder: "desc",
		},
		{
			name:          "configured default limit",
			query:         &evidence.Query{},
			defaultLimit:  25,
			expectedLimit: 25,
			expectedOrder: "desc",
		},
		{
			name:          "query with limit keeps it",
			query:         &evidence.Query{Limit: 50},
			expectedLimit: 50,
			expectedOrder: "desc",
		},
		{
			name:          "query with sort order keeps it",
			query:         &evidence.Query{SortOrder: "asc"},
			expectedLimit: DefaultLimit,
			expectedOrder: "asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ApplyDefaults(tt.query, tt.defaultLimit)
			if tt.query.Limit != tt.expectedLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.expectedLimit)
			}
			if tt.query.SortOrder != tt.expectedOrder {
				t.Errorf("SortOrder = %q, want %q", tt.query.SortOrder, tt.expectedOrder)
			}
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	q := &evidence.Query{}
	ApplyDefaults(q, 0)
	first := *q

	ApplyDefaults(q, 0)
	ApplyDefaults(q, 0)

	if q.Limit != first.Limit || q.SortOrder != first.SortOrder {
		t.Errorf("ApplyDefaults not idempotent: %+v -> %+v", first, *q)
	}
}

func BenchmarkValidate(b *testing.B) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	minScore := 40.0

	q := &evidence.Query{
		StartTime:  &past,
		EndTime:    &now,
		OperatorID: "op-17",
		Category:   fuzzy.CategoryHigh,
		MinScore:   &minScore,
		Limit:      100,
		SortOrder:  "desc",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Validate(q, 0)
	}
}
