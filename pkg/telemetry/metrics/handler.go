package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an HTTP handler exposing the collector's registry in the
// Prometheus exposition format. Mount it at MetricsConfig.Path.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// HandlerWithOptions returns an HTTP handler with custom options.
func (c *Collector) HandlerWithOptions(opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(c.registry, opts)
}

// Path returns the configured HTTP path for Handler, "/metrics" by default.
func (c *Collector) Path() string {
	if c == nil || c.config.Path == "" {
		return "/metrics"
	}
	return c.config.Path
}
