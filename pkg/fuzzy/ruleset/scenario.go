package ruleset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/perfscore/pkg/fuzzy"
)

// Suite is a named list of scenarios loaded from YAML.
type Suite struct {
	Name      string     `yaml:"name"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is a single input case with its expected outcome.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Inputs      map[string]float64 `yaml:"inputs"`
	Expect      Expectation        `yaml:"expect"`
}

// Expectation bounds the outcome of a scenario. Unset fields are not checked.
type Expectation struct {
	Category fuzzy.Category `yaml:"category"`
	MinScore *float64       `yaml:"min_score"`
	MaxScore *float64       `yaml:"max_score"`
	Fired    []string       `yaml:"fired"`
}

// ScenarioResult is the outcome of running one scenario.
type ScenarioResult struct {
	Scenario Scenario
	Result   *fuzzy.Result
	Passed   bool
	Failures []string
}

// LoadSuite reads a scenario file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Type: ErrorTypeIO, Message: "cannot read scenarios", File: path, Err: err}
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, &ParseError{Type: ErrorTypeSyntax, Message: "invalid YAML", File: path, Err: err}
	}
	for i, sc := range suite.Scenarios {
		if sc.Expect.Category != "" && !sc.Expect.Category.Valid() {
			return nil, &ParseError{
				Type:    ErrorTypeStructural,
				Message: fmt.Sprintf("scenario %d (%s): unknown category %q", i, sc.Name, sc.Expect.Category),
				File:    path,
			}
		}
	}
	return &suite, nil
}

// Run evaluates every scenario against the engine.
func (s *Suite) Run(engine *fuzzy.Engine) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		results = append(results, RunScenario(engine, sc))
	}
	return results
}

// RunScenario evaluates one scenario and checks its expectations.
func RunScenario(engine *fuzzy.Engine, sc Scenario) ScenarioResult {
	res := engine.Evaluate(fuzzy.Inputs(sc.Inputs))
	out := ScenarioResult{Scenario: sc, Result: res}

	if sc.Expect.Category != "" && res.Category != sc.Expect.Category {
		out.Failures = append(out.Failures,
			fmt.Sprintf("category: got %s, want %s (score %.2f)", res.Category, sc.Expect.Category, res.Score))
	}
	if sc.Expect.MinScore != nil && res.Score < *sc.Expect.MinScore {
		out.Failures = append(out.Failures,
			fmt.Sprintf("score %.2f below minimum %.2f", res.Score, *sc.Expect.MinScore))
	}
	if sc.Expect.MaxScore != nil && res.Score > *sc.Expect.MaxScore {
		out.Failures = append(out.Failures,
			fmt.Sprintf("score %.2f above maximum %.2f", res.Score, *sc.Expect.MaxScore))
	}
	if sc.Expect.Fired != nil {
		fired := res.Fired()
		names := make([]string, len(fired))
		for i, a := range fired {
			names[i] = a.Name
		}
		if fmt.Sprint(names) != fmt.Sprint(sc.Expect.Fired) {
			out.Failures = append(out.Failures,
				fmt.Sprintf("fired rules: got %v, want %v", names, sc.Expect.Fired))
		}
	}

	out.Passed = len(out.Failures) == 0
	return out
}

// Summary counts passed and failed results.
func Summary(results []ScenarioResult) (passed, failed int) {
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
