package metrics

import (
	"strconv"
	"time"

	"mercator-hq/perfscore/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks API requests. The route label is the registered
// pattern, never the raw URL.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration)
	return hm
}

// RecordRequest records one served request.
func (hm *HTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
