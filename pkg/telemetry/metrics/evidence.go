package metrics

import (
	"mercator-hq/perfscore/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvidenceMetrics tracks the evidence recorder and retention pruner.
type EvidenceMetrics struct {
	written prometheus.Counter
	dropped prometheus.Counter
	pruned  prometheus.Counter
}

// NewEvidenceMetrics creates and registers evidence metrics.
func NewEvidenceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvidenceMetrics {
	em := &EvidenceMetrics{
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evidence_written_total",
			Help:      "Total number of evidence records persisted",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evidence_dropped_total",
			Help:      "Total number of evidence records dropped",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "evidence_pruned_total",
			Help:      "Total number of evidence records deleted by retention",
		}),
	}

	registry.MustRegister(em.written, em.dropped, em.pruned)
	return em
}
