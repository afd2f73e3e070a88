// Package ruleset loads fuzzy inference configurations from YAML.
//
// A rule set declares the input variables, the output variable and the rule
// list of a fuzzy.Engine:
//
//	name: operator-performance
//	version: 1.0.0
//	inputs:
//	  - name: operations
//	    universe: {min: 0, max: 20, step: 1}
//	    terms:
//	      - {name: low,  shape: triangular, points: [0, 0, 8]}
//	      - {name: high, shape: triangular, points: [12, 20, 20]}
//	output:
//	  name: performance
//	  universe: {min: 0, max: 100, step: 1}
//	  terms:
//	    - {name: low,  shape: triangular, points: [0, 0, 40]}
//	    - {name: high, shape: triangular, points: [60, 100, 100]}
//	rules:
//	  - name: productive
//	    when:
//	      all: [operations.high, error_rate.low]
//	    then: high
//
// A condition is either a "variable.term" string, a map with a single
// "all", "any" or "term" key, or a list (implicit all). Nested all/any
// blocks fold into binary AND/OR nodes left to right.
//
// Parse errors carry the source file and line. Engine configuration errors
// from package fuzzy are wrapped unchanged, so errors.Is(err,
// fuzzy.ErrUnknownTerm) works on the result of Parse.
//
// The operator-performance rule set ships embedded and is returned by
// Default.
package ruleset
