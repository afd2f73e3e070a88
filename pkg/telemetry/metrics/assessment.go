package metrics

import (
	"time"

	"mercator-hq/perfscore/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AssessmentMetrics tracks fuzzy evaluations.
//
// Metrics:
//   - perfscore_assessment_assessments_total: Assessments by category
//   - perfscore_assessment_duration_seconds: Engine evaluation time
//   - perfscore_assessment_score: Distribution of crisp scores
//   - perfscore_assessment_rule_activations_total: Evaluations in which a rule fired
//   - perfscore_assessment_no_rule_fired_total: Evaluations that fell back to score 0
type AssessmentMetrics struct {
	assessmentsTotal *prometheus.CounterVec
	duration         prometheus.Histogram
	score            prometheus.Histogram
	activationsTotal *prometheus.CounterVec
	noRuleFired      prometheus.Counter
}

// NewAssessmentMetrics creates and registers assessment metrics.
func NewAssessmentMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AssessmentMetrics {
	am := &AssessmentMetrics{
		assessmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "assessments_total",
				Help:      "Total number of operator assessments by performance category",
			},
			[]string{"category"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duration_seconds",
				Help:      "Duration of fuzzy evaluation in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		score: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "score",
				Help:      "Distribution of performance scores",
				Buckets:   prometheus.LinearBuckets(10, 10, 10), // 10 .. 100
			},
		),

		activationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_activations_total",
				Help:      "Total number of evaluations in which a rule fired",
			},
			[]string{"rule"},
		),

		noRuleFired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "no_rule_fired_total",
				Help:      "Total number of evaluations where no rule fired",
			},
		),
	}

	registry.MustRegister(
		am.assessmentsTotal,
		am.duration,
		am.score,
		am.activationsTotal,
		am.noRuleFired,
	)

	return am
}

// RecordAssessment records the category, score and duration of one evaluation.
func (am *AssessmentMetrics) RecordAssessment(category string, score float64, duration time.Duration) {
	am.assessmentsTotal.WithLabelValues(category).Inc()
	am.duration.Observe(duration.Seconds())
	am.score.Observe(score)
}

// RecordActivation records that rule fired in an evaluation.
func (am *AssessmentMetrics) RecordActivation(rule string) {
	am.activationsTotal.WithLabelValues(rule).Inc()
}

// RecordNoRuleFired records an evaluation with no active rule.
func (am *AssessmentMetrics) RecordNoRuleFired() {
	am.noRuleFired.Inc()
}
