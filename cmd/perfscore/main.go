// perfscore scores operator performance with a Mamdani fuzzy-inference
// engine. It rates an operator's operation count and error rate against a
// declarative rule set and reports a 0-100 score, a performance category and
// the itemised inference breakdown.
//
// Usage:
//
//	# Score a single operator
//	perfscore assess --operations 18 --error-rate 0.05
//
//	# Show every membership and rule, fired or not
//	perfscore assess --operations 10 --error-rate 0.4 --trace
//
//	# Validate rule-set files
//	perfscore lint --file rules/performance.yaml
//
//	# Run scenario tests against a rule set
//	perfscore test --ruleset rules/performance.yaml --tests rules/scenarios.yaml
//
//	# Start the HTTP API
//	perfscore run --config /etc/perfscore/config.yaml
//
//	# Query recorded assessments
//	perfscore evidence query --operator op-17 --since 2026-04-01T00:00:00Z
//
//	# Show version information
//	perfscore version
package main

func main() {
	Execute()
}
