package metrics

import (
	"sync"
	"time"

	"mercator-hq/perfscore/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns the Prometheus registry and every perfscore metric.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	assessmentMetrics *AssessmentMetrics
	ruleSetMetrics    *RuleSetMetrics
	evidenceMetrics   *EvidenceMetrics
	httpMetrics       *HTTPMetrics

	// Rule names come from user-supplied rule sets and can change on reload.
	ruleLimiter *CardinalityLimiter
}

// NewCollector creates a collector. If registry is nil, a new registry is
// created with the Go runtime and process collectors registered on it.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		assessmentMetrics: NewAssessmentMetrics(cfg, registry),
		ruleSetMetrics:    NewRuleSetMetrics(cfg, registry),
		evidenceMetrics:   NewEvidenceMetrics(cfg, registry),
		httpMetrics:       NewHTTPMetrics(cfg, registry),
		ruleLimiter:       NewCardinalityLimiter(200),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordAssessment records one completed assessment.
//
// Parameters:
//   - category: "high", "medium" or "low"
//   - score: crisp score in [0, 100]
//   - duration: engine evaluation time
//   - fired: names of rules with non-zero firing strength
//
// An empty fired list also counts as a no-rule-fired evaluation.
func (c *Collector) RecordAssessment(category string, score float64, duration time.Duration, fired []string) {
	if !c.enabled() {
		return
	}

	c.assessmentMetrics.RecordAssessment(category, score, duration)
	if len(fired) == 0 {
		c.assessmentMetrics.RecordNoRuleFired()
		return
	}
	for _, rule := range fired {
		if !c.ruleLimiter.Allow(rule) {
			rule = otherLabel
		}
		c.assessmentMetrics.RecordActivation(rule)
	}
}

// RecordReload records a rule-set load attempt ("success" or "failure").
// On success rules is the number of rules now active.
func (c *Collector) RecordReload(status string, rules int) {
	if !c.enabled() {
		return
	}
	c.ruleSetMetrics.RecordReload(status, rules)
}

// RecordEvidenceWritten records a record persisted by the evidence recorder.
func (c *Collector) RecordEvidenceWritten() {
	if !c.enabled() {
		return
	}
	c.evidenceMetrics.written.Inc()
}

// RecordEvidenceDropped records a record dropped because the recorder
// buffer was full or the write failed.
func (c *Collector) RecordEvidenceDropped() {
	if !c.enabled() {
		return
	}
	c.evidenceMetrics.dropped.Inc()
}

// RecordEvidencePruned records records deleted by the retention pruner.
func (c *Collector) RecordEvidencePruned(n int64) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.evidenceMetrics.pruned.Add(float64(n))
}

// RecordHTTPRequest records a served API request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.httpMetrics.RecordRequest(method, route, status, duration)
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values tracked.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter for maxCardinality label values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[value]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
