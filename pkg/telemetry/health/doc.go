// Package health provides liveness and readiness probes.
//
// Components register checks by name. Critical checks (the loaded rule set)
// make the process unhealthy when they fail; optional checks (the evidence
// store) only degrade it, since assessments keep working without evidence.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("ruleset", service.Check)
//	checker.RegisterOptionalCheck("evidence", store.Ping)
//	mux.Handle("/ready", checker.ReadinessHandler())
package health
