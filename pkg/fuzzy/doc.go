// Package fuzzy implements a Mamdani fuzzy-inference engine.
//
// The engine maps crisp numeric inputs to a crisp output score in four steps:
//
//  1. Fuzzification: each input value is evaluated against every term of its
//     linguistic variable (triangular or trapezoidal membership functions).
//  2. Rule activation: each rule antecedent is an expression tree of terms
//     combined with AND (min) and OR (max).
//  3. Implication and aggregation: every fired rule clips its consequent term
//     to the rule strength, and the clipped sets are merged pointwise with max.
//  4. Defuzzification: the centroid of the aggregated set over the discretized
//     output universe becomes the score.
//
// # Basic Usage
//
//	ops, _ := fuzzy.NewVariable("operations", fuzzy.MustUniverse(0, 20, 1),
//	    fuzzy.NewSet("low", fuzzy.MustTriangular(0, 0, 8)),
//	    fuzzy.NewSet("high", fuzzy.MustTriangular(12, 20, 20)),
//	)
//	// ... error_rate and performance variables ...
//
//	engine, err := fuzzy.New(
//	    []*fuzzy.Variable{ops, errRate},
//	    performance,
//	    []fuzzy.Rule{
//	        fuzzy.NewRule("productive", fuzzy.And{
//	            Left:  fuzzy.Term{Variable: "operations", Label: "high"},
//	            Right: fuzzy.Term{Variable: "error_rate", Label: "low"},
//	        }, "high"),
//	    },
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := engine.Evaluate(fuzzy.Inputs{"operations": 18, "error_rate": 0.05})
//	fmt.Println(result.Score, result.Category)
//
// # Configuration Errors
//
// Engines, variables and membership functions validate themselves at
// construction time. Every violation wraps one of the sentinel errors
// (ErrUnknownTerm, ErrMalformedMembershipFunction, ErrDuplicateTerm,
// ErrInvalidUniverse) so callers can use errors.Is.
//
// # Concurrency
//
// An Engine is immutable after New returns. Evaluate allocates its own
// working buffers and may be called from any number of goroutines.
package fuzzy
