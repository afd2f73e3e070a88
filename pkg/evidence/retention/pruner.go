package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/perfscore/pkg/evidence"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 means keep evidence forever (no age pruning).
	RetentionDays int

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression or descriptor evaluated in UTC.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Metrics receives the number of pruned records. *metrics.Collector
// satisfies it.
type Metrics interface {
	RecordEvidencePruned(n int64)
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithLogger sets the pruner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pruner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics reports pruned record counts.
func WithMetrics(m Metrics) Option {
	return func(p *Pruner) {
		p.metrics = m
	}
}

// WithClock overrides the time source used to compute the age cutoff.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) {
		p.now = now
	}
}

// Pruner enforces retention policies on evidence records.
type Pruner struct {
	storage   evidence.Storage
	config    *Config
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage evidence.Storage, config *Config, opts ...Option) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "evidence.retention")
	p.scheduler = NewScheduler(p)

	return p
}

// Prune deletes evidence records older than the retention period, then trims
// the oldest records beyond MaxRecords. Returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.storage.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return totalDeleted, evidence.NewRetentionError("age", err)
		}
		totalDeleted += deleted
		p.logger.Debug("pruned records by age",
			"deleted_count", deleted,
			"cutoff_time", cutoff,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.storage.DeleteOldest(ctx, p.config.MaxRecords)
		if err != nil {
			p.report(totalDeleted)
			return totalDeleted, evidence.NewRetentionError("count", err)
		}
		totalDeleted += deleted
		p.logger.Debug("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	p.report(totalDeleted)

	if totalDeleted > 0 {
		p.logger.Info("evidence pruning completed",
			"total_deleted", totalDeleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return totalDeleted, nil
}

func (p *Pruner) report(n int64) {
	if p.metrics != nil && n > 0 {
		p.metrics.RecordEvidencePruned(n)
	}
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

// LastPruning returns the outcome of the latest scheduled pruning.
func (p *Pruner) LastPruning() *RunResult {
	return p.scheduler.LastRun()
}
