package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence/recorder"
	"mercator-hq/perfscore/pkg/fuzzy"
	"mercator-hq/perfscore/pkg/fuzzy/ruleset"
	"mercator-hq/perfscore/pkg/telemetry/logging"
	"mercator-hq/perfscore/pkg/telemetry/metrics"
	"mercator-hq/perfscore/pkg/telemetry/tracing"
)

// Request is one operator's crisp performance inputs.
type Request struct {
	OperatorID string  `json:"operator_id"`
	Operations float64 `json:"operations"`
	ErrorRate  float64 `json:"error_rate"`
}

// Assessment is the scored outcome of a Request.
type Assessment struct {
	ID          string         `json:"id"`
	OperatorID  string         `json:"operator_id"`
	Operations  float64        `json:"operations"`
	ErrorRate   float64        `json:"error_rate"`
	Score       float64        `json:"score"`
	Category    fuzzy.Category `json:"category"`
	Label       string         `json:"label"`
	Result      *fuzzy.Result  `json:"breakdown"`
	RuleSet     RuleSetInfo    `json:"ruleset"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
	Duration    time.Duration  `json:"duration_ns"`
}

// FiredRules returns the names of rules that contributed to the score.
func (a *Assessment) FiredRules() []string {
	var names []string
	for _, r := range a.Result.Fired() {
		names = append(names, r.Name)
	}
	return names
}

// RuleSetInfo describes the rule set that served an assessment.
type RuleSetInfo struct {
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	Checksum string    `json:"checksum"`
	Rules    int       `json:"rules"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Bindings names the engine input variables fed by a Request.
type Bindings struct {
	Operations string
	ErrorRate  string
}

// Config configures a Service.
type Config struct {
	// Path is the rule-set file. Empty selects the embedded default.
	Path string

	// Bindings maps Request fields to engine inputs.
	Bindings Bindings
}

// ConfigFrom builds a service Config from the application rule-set section.
func ConfigFrom(cfg *config.RuleSetConfig) Config {
	return Config{
		Path: cfg.Path,
		Bindings: Bindings{
			Operations: cfg.OperationsInput,
			ErrorRate:  cfg.ErrorRateInput,
		},
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics reports assessments and reloads to collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = collector
	}
}

// WithTracer traces assessments and reloads.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithRecorder records every assessment as evidence.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(s *Service) {
		s.recorder = rec
	}
}

// WithClock overrides the time source for EvaluatedAt and LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type loaded struct {
	ruleSet *ruleset.RuleSet
	info    RuleSetInfo
}

// Service evaluates assessments against a hot-swappable rule set.
type Service struct {
	config   Config
	current  atomic.Pointer[loaded]
	reloadMu sync.Mutex

	logger   *slog.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	recorder *recorder.Recorder
	now      func() time.Time
}

// New creates a service and loads its initial rule set. Unlike Reload, a
// failure here is fatal: there is no previous rule set to fall back to.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.Bindings.Operations == "" {
		cfg.Bindings.Operations = config.DefaultOperationsInput
	}
	if cfg.Bindings.ErrorRate == "" {
		cfg.Bindings.ErrorRate = config.DefaultErrorRateInput
	}
	if cfg.Bindings.Operations == cfg.Bindings.ErrorRate {
		return nil, fmt.Errorf("%w: operations and error rate both bound to %q",
			ErrConflictingBinding, cfg.Bindings.Operations)
	}

	s := &Service{
		config: cfg,
		logger: slog.Default(),
		tracer: tracing.Noop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "assessment")

	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Assess scores one request. Evaluation is total; errors are returned only
// when no rule set is loaded or an input is not a finite number.
func (s *Service) Assess(ctx context.Context, req Request) (*Assessment, error) {
	if s == nil {
		return nil, ErrNotReady
	}
	cur := s.current.Load()
	if cur == nil {
		return nil, ErrNotReady
	}

	ctx, span := s.tracer.Start(ctx, "assessment.evaluate")
	defer span.End()
	tracing.SetAssessmentInputs(span, req.OperatorID, req.Operations, req.ErrorRate)
	tracing.SetRuleSetAttributes(span, cur.info.Name, cur.info.Version, cur.info.Checksum, cur.info.Source)

	if err := validateRequest(req); err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	id := uuid.New().String()
	ctx = logging.WithAssessmentID(ctx, id)
	if req.OperatorID != "" {
		ctx = logging.WithOperatorID(ctx, req.OperatorID)
	}

	bind := s.config.Bindings
	evaluatedAt := s.now().UTC()
	start := time.Now()
	result := cur.ruleSet.Engine.Evaluate(fuzzy.Inputs{
		bind.Operations: req.Operations,
		bind.ErrorRate:  req.ErrorRate,
	})
	duration := time.Since(start)

	a := &Assessment{
		ID:          id,
		OperatorID:  req.OperatorID,
		Operations:  req.Operations,
		ErrorRate:   req.ErrorRate,
		Score:       result.Score,
		Category:    result.Category,
		Label:       result.Category.Label(),
		Result:      result,
		RuleSet:     cur.info,
		EvaluatedAt: evaluatedAt,
		Duration:    duration,
	}
	fired := a.FiredRules()

	s.metrics.RecordAssessment(string(a.Category), a.Score, duration, fired)
	tracing.SetAssessmentResult(span, id, a.Score, string(a.Category), fired)

	s.logger.DebugContext(ctx, "assessment evaluated",
		"operations", req.Operations,
		"error_rate", req.ErrorRate,
		"score", a.Score,
		"category", a.Category,
		"rules_fired", fired,
		"duration_us", duration.Microseconds(),
	)

	if err := s.recorder.Record(ctx, recorder.Entry{
		ID:              id,
		OperatorID:      req.OperatorID,
		Operations:      req.Operations,
		ErrorRate:       req.ErrorRate,
		Result:          result,
		RuleSet:         cur.info.Name,
		RuleSetVersion:  cur.info.Version,
		RuleSetChecksum: cur.info.Checksum,
		EvaluatedAt:     evaluatedAt,
		Duration:        duration,
	}); err != nil {
		span.AddEvent("evidence.dropped", trace.WithAttributes(
			attribute.String(tracing.AttrErrorMessage, err.Error()),
		))
	}

	return a, nil
}

// Reload re-reads the rule set and swaps it in if it is valid and defines
// both bound inputs. On failure the current rule set keeps serving.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ruleset.reload")
	defer span.End()

	rs, err := s.load()
	if err == nil {
		err = s.checkBindings(rs)
	}
	if err != nil {
		tracing.SetError(span, err)
		rules := 0
		if cur := s.current.Load(); cur != nil {
			rules = cur.info.Rules
		}
		s.metrics.RecordReload("failure", rules)
		s.logger.ErrorContext(ctx, "rule set load failed, keeping previous rule set",
			"source", s.source(),
			"error", err,
		)
		return err
	}

	info := RuleSetInfo{
		Name:     rs.Name,
		Version:  rs.Version,
		Source:   rs.Source,
		Checksum: rs.Checksum,
		Rules:    len(rs.Engine.Rules()),
		LoadedAt: s.now().UTC(),
	}
	previous := s.current.Swap(&loaded{ruleSet: rs, info: info})

	tracing.SetRuleSetAttributes(span, info.Name, info.Version, info.Checksum, info.Source)
	s.metrics.RecordReload("success", info.Rules)

	attrs := []any{
		"name", info.Name,
		"version", info.Version,
		"source", info.Source,
		"checksum", info.Checksum,
		"rules", info.Rules,
	}
	if previous != nil && previous.info.Checksum == info.Checksum {
		s.logger.InfoContext(ctx, "rule set reloaded (unchanged)", attrs...)
	} else {
		s.logger.InfoContext(ctx, "rule set loaded", attrs...)
	}
	for _, w := range rs.Engine.Warnings() {
		s.logger.WarnContext(ctx, "rule set warning", "source", info.Source, "warning", w)
	}

	return nil
}

// RuleSet describes the active rule set.
func (s *Service) RuleSet() (RuleSetInfo, bool) {
	if s == nil {
		return RuleSetInfo{}, false
	}
	cur := s.current.Load()
	if cur == nil {
		return RuleSetInfo{}, false
	}
	return cur.info, true
}

// Engine returns the active engine.
func (s *Service) Engine() *fuzzy.Engine {
	if s == nil {
		return nil
	}
	if cur := s.current.Load(); cur != nil {
		return cur.ruleSet.Engine
	}
	return nil
}

// Bindings returns the input bindings in use.
func (s *Service) Bindings() Bindings {
	return s.config.Bindings
}

// Path returns the watched rule-set path, or "" for the embedded default.
func (s *Service) Path() string {
	return s.config.Path
}

// Check is a readiness check: it fails until a rule set is loaded.
func (s *Service) Check(ctx context.Context) error {
	if _, ok := s.RuleSet(); !ok {
		return ErrNotReady
	}
	return nil
}

func (s *Service) load() (*ruleset.RuleSet, error) {
	if s.config.Path == "" {
		return ruleset.Default(ruleset.WithLogger(s.logger))
	}
	return ruleset.Parse(s.config.Path, ruleset.WithLogger(s.logger))
}

func (s *Service) source() string {
	if s.config.Path == "" {
		return ruleset.DefaultSource
	}
	return s.config.Path
}

func (s *Service) checkBindings(rs *ruleset.RuleSet) error {
	for _, name := range []string{s.config.Bindings.Operations, s.config.Bindings.ErrorRate} {
		if _, ok := rs.Engine.Input(name); !ok {
			return fmt.Errorf("%w %q in %s", ErrMissingBinding, name, rs.Source)
		}
	}
	return nil
}

func validateRequest(req Request) error {
	if math.IsNaN(req.Operations) || math.IsInf(req.Operations, 0) {
		return fmt.Errorf("%w: operations must be a finite number", ErrInvalidInput)
	}
	if math.IsNaN(req.ErrorRate) || math.IsInf(req.ErrorRate, 0) {
		return fmt.Errorf("%w: error_rate must be a finite number", ErrInvalidInput)
	}
	return nil
}
