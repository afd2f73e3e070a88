package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own diagnostics (recovered panics, skipped runs)
// into slog.
type cronLogger struct{ logger *slog.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.logger.Debug("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.logger.Error("cron: "+msg, append(kv, "error", err)...)
}

// RunResult is the outcome of the most recent scheduled prune.
type RunResult struct {
	At      time.Time
	Deleted int64
	Err     error
}

// Scheduler runs the pruner on a cron schedule. A run still in progress when
// the next one is due causes that next run to be skipped.
type Scheduler struct {
	pruner *Pruner

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	last    *RunResult
}

// NewScheduler creates a stopped scheduler for pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{pruner: pruner}
}

// Start schedules pruning per the pruner's PruneSchedule: five-field cron
// ("0 3 * * *") or a descriptor ("@daily", "@every 6h"). Schedules run in UTC.
// An empty schedule is a no-op. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.pruner.logger
	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true

	logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.config.RetentionDays,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	logger := s.pruner.logger
	started := s.pruner.now()

	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		logger.Error("scheduled pruning failed", "deleted_count", deleted, "error", err)
	} else {
		logger.Info("scheduled pruning completed",
			"deleted_count", deleted,
			"duration_ms", s.pruner.now().Sub(started).Milliseconds(),
		)
	}

	s.mu.Lock()
	s.last = &RunResult{At: started, Deleted: deleted, Err: err}
	s.mu.Unlock()
}

// Stop stops the scheduler, waiting for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()

	if !wasRunning || c == nil {
		return
	}
	// Outside the lock: a finishing run takes s.mu to store its result.
	<-c.Stop().Done()
	s.pruner.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether pruning is scheduled.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or nil when not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}

// LastRun returns the outcome of the latest scheduled prune, or nil if none
// has run yet.
func (s *Scheduler) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}
