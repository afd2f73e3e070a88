package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/fuzzy"
)

// Config contains configuration for the evidence recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing evidence to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Metrics receives recorder outcomes. *metrics.Collector satisfies it.
type Metrics interface {
	RecordEvidenceWritten()
	RecordEvidenceDropped()
}

// Entry is one assessment to be recorded.
type Entry struct {
	// ID becomes the record ID. A new UUID is generated when empty.
	ID string

	OperatorID string
	Operations float64
	ErrorRate  float64

	Result *fuzzy.Result

	RuleSet         string
	RuleSetVersion  string
	RuleSetChecksum string

	EvaluatedAt time.Time
	Duration    time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics reports written and dropped records.
func WithMetrics(m Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// Recorder records assessment evidence asynchronously.
type Recorder struct {
	storage    evidence.Storage
	config     *Config
	recordChan chan *evidence.Record
	wg         sync.WaitGroup
	logger     *slog.Logger
	metrics    Metrics
	now        func() time.Time

	// mu guards closed and sends on recordChan against Close.
	mu     sync.RWMutex
	closed bool
}

// New creates a new evidence recorder and starts its worker.
func New(storage evidence.Storage, config *Config, opts ...Option) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *evidence.Record, config.AsyncBuffer),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "evidence.recorder")

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("evidence recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record builds an evidence record from entry and enqueues it for writing.
// It never blocks: a full buffer drops the record. A nil Recorder records
// nothing.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if r == nil {
		return nil
	}

	record := r.buildRecord(entry)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return evidence.NewRecorderError(record.ID, evidence.ErrRecorderClosed)
	}

	select {
	case r.recordChan <- record:
		r.logger.Debug("evidence record enqueued",
			"record_id", record.ID,
			"operator_id", record.OperatorID,
		)
		return nil
	default:
		r.logger.WarnContext(ctx, "evidence buffer full, dropping record",
			"record_id", record.ID,
			"operator_id", record.OperatorID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		if r.metrics != nil {
			r.metrics.RecordEvidenceDropped()
		}
		return evidence.NewRecorderError(record.ID, evidence.ErrBufferFull)
	}
}

// Pending returns the number of records waiting to be written.
func (r *Recorder) Pending() int {
	if r == nil {
		return 0
	}
	return len(r.recordChan)
}

// Close stops accepting records, drains the buffer and waits for the worker.
// It is safe to call more than once.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.recordChan)
	r.mu.Unlock()

	r.logger.Info("shutting down evidence recorder", "pending_count", len(r.recordChan))
	r.wg.Wait()
	r.logger.Info("evidence recorder shut down complete")
	return nil
}

// worker drains the channel until it is closed.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for record := range r.recordChan {
		r.writeRecord(record)
	}
}

// writeRecord writes a single evidence record to storage.
func (r *Recorder) writeRecord(record *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordEvidenceWritten()
	}

	r.logger.Debug("evidence recorded",
		"record_id", record.ID,
		"category", record.Category,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow evidence write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

// buildRecord converts an entry into an evidence record.
func (r *Recorder) buildRecord(entry Entry) *evidence.Record {
	now := r.now().UTC()

	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	evaluatedAt := entry.EvaluatedAt
	if evaluatedAt.IsZero() {
		evaluatedAt = now
	}

	record := &evidence.Record{
		ID:              id,
		OperatorID:      entry.OperatorID,
		Operations:      entry.Operations,
		ErrorRate:       entry.ErrorRate,
		RuleSet:         entry.RuleSet,
		RuleSetVersion:  entry.RuleSetVersion,
		RuleSetChecksum: entry.RuleSetChecksum,
		InputHash:       HashInputs(entry.Operations, entry.ErrorRate, entry.RuleSetChecksum),
		EvaluatedAt:     evaluatedAt.UTC(),
		RecordedAt:      now,
		DurationMicros:  entry.Duration.Microseconds(),
	}

	if entry.Result != nil {
		record.Score = entry.Result.Score
		record.Category = entry.Result.Category
		record.Memberships = append([]fuzzy.TermMembership(nil), entry.Result.Memberships...)
		record.Activations = append([]fuzzy.RuleActivation(nil), entry.Result.Activations...)
	}

	return record
}
