package metrics

import (
	"time"

	"mercator-hq/perfscore/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleSetMetrics tracks rule-set loading.
type RuleSetMetrics struct {
	reloadsTotal *prometheus.CounterVec
	rules        prometheus.Gauge
	lastLoaded   prometheus.Gauge
}

// NewRuleSetMetrics creates and registers rule-set metrics.
func NewRuleSetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleSetMetrics {
	rm := &RuleSetMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_reloads_total",
				Help:      "Total number of rule-set load attempts by outcome",
			},
			[]string{"status"},
		),
		rules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_rules",
				Help:      "Number of rules in the active rule set",
			},
		),
		lastLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_last_loaded_timestamp_seconds",
				Help:      "Unix time of the last successful rule-set load",
			},
		),
	}

	registry.MustRegister(rm.reloadsTotal, rm.rules, rm.lastLoaded)
	return rm
}

// RecordReload records a load attempt.
func (rm *RuleSetMetrics) RecordReload(status string, rules int) {
	rm.reloadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		rm.rules.Set(float64(rules))
		rm.lastLoaded.Set(float64(time.Now().Unix()))
	}
}
