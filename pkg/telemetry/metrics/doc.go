// Package metrics provides Prometheus metrics collection for perfscore.
//
// # Metrics Categories
//
//   - Assessment Metrics: assessments by category, evaluation duration,
//     score distribution, fired rules and evaluations where no rule fired
//   - Rule Set Metrics: reload outcomes and the loaded rule count
//   - Evidence Metrics: records written, dropped and pruned
//   - HTTP Metrics: API request count and latency by route and status
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordAssessment("high", 82.4, 40*time.Microsecond, []string{"productive-and-accurate"})
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// A nil *Collector, or one built from a disabled config, ignores every
// Record call so callers never need to check.
package metrics
