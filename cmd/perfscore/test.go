package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/fuzzy/ruleset"
)

var testFlags struct {
	testsFile string
	ruleset   string
	format    string
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run rule-set scenario tests",
	Long: `Evaluate scenario files against a rule set and check the expected outcomes.

Scenario Format (YAML):
  name: operator performance
  scenarios:
    - name: excellent operator
      inputs: {operations: 18, error_rate: 0.05}
      expect:
        category: high                   # high, medium, low
        min_score: 60                    # optional, inclusive
        max_score: 100                   # optional, inclusive
        fired: [productive-and-accurate] # optional, exact list in rule order

Without --ruleset the rule set from the configuration is used, falling back
to the built-in operator-performance rule set.

Examples:
  # Test the built-in rule set
  perfscore test --tests scenarios.yaml

  # Test a custom rule set
  perfscore test --ruleset rules.yaml --tests scenarios.yaml --format json`,
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVarP(&testFlags.testsFile, "tests", "t", "", "scenario file")
	testCmd.Flags().StringVarP(&testFlags.ruleset, "ruleset", "r", "", "rule-set file to test")
	testCmd.Flags().StringVar(&testFlags.format, "format", "text", "output format: text, json")

	// Mark required flags - panic if this fails as it's a programming error
	if err := testCmd.MarkFlagRequired("tests"); err != nil {
		panic(fmt.Sprintf("failed to mark tests flag as required: %v", err))
	}
}

func runTests(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(testFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}
	if testFlags.testsFile == "" {
		return cli.NewConfigError("tests", "--tests must be specified")
	}

	path := testFlags.ruleset
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.RuleSet.Path
	}

	rs, err := loadRuleSet(path)
	if err != nil {
		return cli.NewCommandError("test", fmt.Errorf("failed to load rule set: %w", err))
	}

	suite, err := ruleset.LoadSuite(testFlags.testsFile)
	if err != nil {
		return cli.NewCommandError("test", fmt.Errorf("failed to load scenarios: %w", err))
	}
	if len(suite.Scenarios) == 0 {
		return cli.NewCommandError("test", fmt.Errorf("no scenarios found in %s", testFlags.testsFile))
	}

	start := time.Now()
	results := suite.Run(rs.Engine)
	report := newTestReport(rs, suite, results, time.Since(start))

	var out any = report
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if report.Failed > 0 {
		return cli.NewCommandError("test", errors.New("scenario failures"))
	}
	return nil
}

func loadRuleSet(path string) (*ruleset.RuleSet, error) {
	opts := []ruleset.Option{ruleset.WithLogger(commandLogger())}
	if path == "" {
		return ruleset.Default(opts...)
	}
	return ruleset.Parse(path, opts...)
}

// TestReport is the outcome of one scenario run.
type TestReport struct {
	RuleSet  string       `json:"ruleset"`
	Version  string       `json:"version"`
	Suite    string       `json:"suite"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Duration float64      `json:"duration_ms"`
	Results  []TestResult `json:"results"`
}

// TestResult represents the result of executing a single scenario.
type TestResult struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Score    float64  `json:"score"`
	Category string   `json:"category"`
	Fired    []string `json:"fired"`
	Failures []string `json:"failures,omitempty"`
}

func newTestReport(rs *ruleset.RuleSet, suite *ruleset.Suite, results []ruleset.ScenarioResult, elapsed time.Duration) *TestReport {
	passed, failed := ruleset.Summary(results)
	report := &TestReport{
		RuleSet:  rs.Name,
		Version:  rs.Version,
		Suite:    suite.Name,
		Passed:   passed,
		Failed:   failed,
		Duration: float64(elapsed.Microseconds()) / 1000,
		Results:  make([]TestResult, 0, len(results)),
	}
	for _, r := range results {
		tr := TestResult{
			Name:     r.Scenario.Name,
			Passed:   r.Passed,
			Score:    r.Result.Score,
			Category: string(r.Result.Category),
			Fired:    []string{},
			Failures: r.Failures,
		}
		for _, a := range r.Result.Fired() {
			tr.Fired = append(tr.Fired, a.Name)
		}
		report.Results = append(report.Results, tr)
	}
	return report
}

func (r *TestReport) WriteText(w io.Writer) error {
	p := &printer{w: w}

	p.printf("Running %s tests against %s %s...\n\n", r.Suite, r.RuleSet, r.Version)
	for _, res := range r.Results {
		if res.Passed {
			p.printf("✓ %s (score %.2f, %s)\n", res.Name, res.Score, res.Category)
			continue
		}
		p.printf("✗ %s\n", res.Name)
		for _, f := range res.Failures {
			p.printf("  %s\n", f)
		}
	}

	p.printf("\nSummary:\n")
	p.printf("  %d tests run, %d passed, %d failed (%.1fms)\n", len(r.Results), r.Passed, r.Failed, r.Duration)

	if r.Failed > 0 {
		p.printf("\nFailed tests:\n")
		for _, res := range r.Results {
			if !res.Passed {
				p.printf("  - %s\n", res.Name)
			}
		}
	}
	return p.err
}
