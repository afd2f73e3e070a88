package fuzzy

import "testing"

// performanceVariables returns the operator-performance variables used
// throughout the engine tests.
func performanceVariables(t *testing.T) (ops, errRate, perf *Variable) {
	t.Helper()

	var err error
	ops, err = NewVariable("operations", MustUniverse(0, 20, 1),
		NewSet("low", MustTriangular(0, 0, 8)),
		NewSet("medium", MustTriangular(5, 10, 15)),
		NewSet("high", MustTriangular(12, 20, 20)),
	)
	if err != nil {
		t.Fatalf("operations variable: %v", err)
	}

	errRate, err = NewVariable("error_rate", MustUniverse(0, 1, 0.01),
		NewSet("low", MustTriangular(0, 0, 0.3)),
		NewSet("medium", MustTriangular(0.2, 0.5, 0.8)),
		NewSet("high", MustTriangular(0.6, 1, 1)),
	)
	if err != nil {
		t.Fatalf("error_rate variable: %v", err)
	}

	perf, err = NewVariable("performance", MustUniverse(0, 100, 1),
		NewSet("low", MustTriangular(0, 0, 40)),
		NewSet("medium", MustTriangular(30, 50, 70)),
		NewSet("high", MustTriangular(60, 100, 100)),
	)
	if err != nil {
		t.Fatalf("performance variable: %v", err)
	}
	return ops, errRate, perf
}

func term(variable, label string) Term {
	return Term{Variable: variable, Label: label}
}

// performanceRules mirrors the five operator-performance rules.
func performanceRules() []Rule {
	return []Rule{
		NewRule("productive-and-accurate", And{term("operations", "high"), term("error_rate", "low")}, "high"),
		NewRule("idle-or-sloppy", Or{term("operations", "low"), term("error_rate", "high")}, "low"),
		NewRule("average", And{term("operations", "medium"), term("error_rate", "medium")}, "medium"),
		NewRule("busy-but-sloppy", And{term("operations", "high"), term("error_rate", "high")}, "low"),
		NewRule("steady-and-accurate", And{term("operations", "medium"), term("error_rate", "low")}, "high"),
	}
}

func newPerformanceEngine(t *testing.T) *Engine {
	t.Helper()
	ops, errRate, perf := performanceVariables(t)
	engine, err := New([]*Variable{ops, errRate}, perf, performanceRules())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return engine
}
