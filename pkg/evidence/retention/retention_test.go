package retention

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/storage"
	"mercator-hq/perfscore/pkg/fuzzy"
	"mercator-hq/perfscore/pkg/telemetry/logging"
)

var now = time.Date(2026, 6, 30, 3, 0, 0, 0, time.UTC)

type prunedCounter struct{ total int64 }

func (c *prunedCounter) RecordEvidencePruned(n int64) { c.total += n }

// failingDeletes wraps memory storage and fails DeleteOldest.
type failingDeletes struct {
	*storage.MemoryStorage
}

func (failingDeletes) DeleteOldest(context.Context, int64) (int64, error) {
	return 0, errors.New("locked")
}

// seedAges stores one record per age (in days before now).
func seedAges(t *testing.T, s evidence.Storage, ages ...int) {
	t.Helper()
	for i, days := range ages {
		err := s.Store(context.Background(), &evidence.Record{
			ID:          fmt.Sprintf("r-%02d", i),
			Score:       50,
			Category:    fuzzy.CategoryMedium,
			EvaluatedAt: now.AddDate(0, 0, -days),
		})
		if err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		ages        []int
		wantDeleted int64
		wantLeft    int
	}{
		{
			name:        "age only",
			config:      Config{RetentionDays: 30},
			ages:        []int{1, 10, 31, 45, 100},
			wantDeleted: 3,
			wantLeft:    2,
		},
		{
			name:        "count only",
			config:      Config{MaxRecords: 2},
			ages:        []int{1, 10, 31, 45, 100},
			wantDeleted: 3,
			wantLeft:    2,
		},
		{
			name:        "age then count",
			config:      Config{RetentionDays: 40, MaxRecords: 2},
			ages:        []int{1, 2, 3, 41, 50},
			wantDeleted: 3,
			wantLeft:    2,
		},
		{
			name:        "retention disabled",
			config:      Config{},
			ages:        []int{1, 500, 5000},
			wantDeleted: 0,
			wantLeft:    3,
		},
		{
			name:        "nothing old enough",
			config:      Config{RetentionDays: 90, MaxRecords: 10},
			ages:        []int{1, 2, 3},
			wantDeleted: 0,
			wantLeft:    3,
		},
		{
			name:        "empty storage",
			config:      Config{RetentionDays: 1, MaxRecords: 1},
			wantDeleted: 0,
			wantLeft:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStorage()
			seedAges(t, store, tt.ages...)
			counter := &prunedCounter{}

			cfg := tt.config
			p := NewPruner(store, &cfg,
				WithLogger(logging.Discard()),
				WithMetrics(counter),
				WithClock(func() time.Time { return now }),
			)

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune() failed: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("Prune() deleted %d, want %d", deleted, tt.wantDeleted)
			}
			if store.Size() != tt.wantLeft {
				t.Errorf("remaining = %d, want %d", store.Size(), tt.wantLeft)
			}
			if counter.total != tt.wantDeleted {
				t.Errorf("metrics pruned = %d, want %d", counter.total, tt.wantDeleted)
			}
		})
	}
}

func TestPruner_KeepsNewestOnCount(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedAges(t, store, 5, 1, 3)

	p := NewPruner(store, &Config{MaxRecords: 1}, WithLogger(logging.Discard()))
	if _, err := p.Prune(context.Background()); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	left, _ := store.Query(context.Background(), &evidence.Query{})
	if len(left) != 1 || left[0].ID != "r-01" {
		t.Errorf("remaining = %v, want only r-01 (newest)", left)
	}
}

func TestPruner_CountPhaseError(t *testing.T) {
	store := failingDeletes{storage.NewMemoryStorage()}
	seedAges(t, store, 1, 100)
	counter := &prunedCounter{}

	p := NewPruner(store, &Config{RetentionDays: 30, MaxRecords: 1},
		WithLogger(logging.Discard()),
		WithMetrics(counter),
		WithClock(func() time.Time { return now }),
	)

	deleted, err := p.Prune(context.Background())
	var rerr *evidence.RetentionError
	if !errors.As(err, &rerr) || rerr.Phase != "count" {
		t.Fatalf("Prune() error = %v, want count-phase RetentionError", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d before failing, want 1", deleted)
	}
	if counter.total != 1 {
		t.Errorf("metrics pruned = %d, want 1", counter.total)
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "valid daily schedule", schedule: "0 3 * * *", wantRunning: true},
		{name: "valid hourly schedule", schedule: "0 * * * *", wantRunning: true},
		{name: "empty schedule", schedule: ""},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPruner(storage.NewMemoryStorage(),
				&Config{PruneSchedule: tt.schedule, RetentionDays: 90},
				WithLogger(logging.Discard()))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := p.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			defer p.Stop()

			if p.scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", p.scheduler.IsRunning(), tt.wantRunning)
			}

			next := p.NextPruning()
			if tt.wantRunning {
				if next == nil || !next.After(time.Now()) {
					t.Errorf("NextPruning() = %v, want a future time", next)
				}
			} else if next != nil {
				t.Errorf("NextPruning() = %v, want nil", next)
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(),
		&Config{PruneSchedule: "0 3 * * *"},
		WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(5 * time.Second)
	for p.scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	p := NewPruner(storage.NewMemoryStorage(),
		&Config{PruneSchedule: "*/5 * * * *"},
		WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := p.Start(ctx); err != nil {
			t.Fatalf("Start() #%d failed: %v", i, err)
		}
		if !p.scheduler.IsRunning() {
			t.Fatalf("not running after Start() #%d", i)
		}
		p.Stop()
		if p.scheduler.IsRunning() {
			t.Fatalf("still running after Stop() #%d", i)
		}
	}
}

func TestScheduler_RecordsLastRun(t *testing.T) {
	store := storage.NewMemoryStorage()
	seedAges(t, store, 1, 2, 3)

	p := NewPruner(store, &Config{PruneSchedule: "@every 1s", MaxRecords: 1}, WithLogger(logging.Discard()))
	if p.LastPruning() != nil {
		t.Fatal("LastPruning() before any run is not nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for p.LastPruning() == nil {
		if time.Now().After(deadline) {
			t.Fatal("scheduled pruning never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}

	last := p.LastPruning()
	if last.Err != nil || last.Deleted != 2 {
		t.Errorf("LastPruning() = %+v, want 2 deleted without error", last)
	}
}
