package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/fuzzy/ruleset"
)

var lintFlags struct {
	file   string
	dir    string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule-set files",
	Long: `Validate fuzzy rule-set files for syntax and structural errors.

The lint command parses each file and builds its inference engine:
  - YAML syntax validation
  - Variable, universe and term validation
  - Rule references to variables and terms
  - Warnings for unused input terms, unconcluded output terms and
    control points outside their universe

Examples:
  # Lint single file
  perfscore lint --file rules/performance.yaml

  # Lint directory
  perfscore lint --dir rules/

  # Strict mode (warnings as errors)
  perfscore lint --file rules/performance.yaml --strict

  # JSON output for CI/CD
  perfscore lint --file rules/performance.yaml --format json`,
	RunE: lintRuleSets,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule-set file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule-set files")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

func lintRuleSets(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}
	if lintFlags.file == "" && lintFlags.dir == "" {
		return cli.NewConfigError("", "either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule-set files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return cli.NewCommandError("lint", errors.New("no rule-set files found"))
	}

	report := &lintReport{strict: lintFlags.strict}
	for _, file := range files {
		report.Results = append(report.Results, validateRuleSetFile(file))
	}

	var out any = report.Results
	if format == cli.FormatText {
		out = report
	}
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	errs, warns := report.totals()
	if errs > 0 || (lintFlags.strict && warns > 0) {
		return cli.NewCommandError("lint", errors.New("validation failed"))
	}
	return nil
}

// ValidationResult represents the validation result for a single rule-set file.
type ValidationResult struct {
	File     string            `json:"file"`
	Valid    bool              `json:"valid"`
	Name     string            `json:"name,omitempty"`
	Version  string            `json:"version,omitempty"`
	Rules    int               `json:"rules,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []ValidationError `json:"warnings,omitempty"`
}

// ValidationError represents a single validation error or warning.
type ValidationError struct {
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Type     string `json:"type,omitempty"`
}

func validateRuleSetFile(path string) ValidationResult {
	report := ruleset.Lint(path)
	result := ValidationResult{
		File:  path,
		Valid: report.Valid,
	}
	if rs := report.RuleSet; rs != nil {
		result.Name = rs.Name
		result.Version = rs.Version
		result.Rules = len(rs.Engine.Rules())
	}

	for _, err := range report.Errors {
		verr := ValidationError{
			Message:  err.Error(),
			Severity: "error",
			Type:     "configuration",
		}
		var perr *ruleset.ParseError
		if errors.As(err, &perr) {
			verr.Line = perr.Line
			verr.Message = perr.Message
			if perr.Err != nil {
				verr.Message += ": " + perr.Err.Error()
			}
			verr.Type = string(perr.Type)
		}
		result.Errors = append(result.Errors, verr)
	}
	for _, w := range report.Warnings {
		result.Warnings = append(result.Warnings, ValidationError{
			Message:  w,
			Severity: "warning",
		})
	}
	return result
}

type lintReport struct {
	Results []ValidationResult
	strict  bool
}

func (r *lintReport) totals() (errs, warns int) {
	for _, res := range r.Results {
		errs += len(res.Errors)
		warns += len(res.Warnings)
	}
	return errs, warns
}

func (r *lintReport) WriteText(w io.Writer) error {
	p := &printer{w: w}

	for _, res := range r.Results {
		p.printf("Validating %s...\n", res.File)

		if res.Valid {
			p.printf("✓ Syntax valid\n")
			p.printf("✓ %s %s: %d rule(s) build a valid engine\n", res.Name, res.Version, res.Rules)
		}
		for _, e := range res.Errors {
			p.printf("✗ Error: %s", e.Message)
			if e.Line > 0 {
				p.printf(" (line %d)", e.Line)
			}
			if e.Type != "" {
				p.printf(" [%s]", e.Type)
			}
			p.printf("\n")
		}
		for _, warn := range res.Warnings {
			p.printf("⚠  Warning: %s\n", warn.Message)
		}
		p.printf("\n")
	}

	errs, warns := r.totals()
	p.printf("Summary:\n")
	p.printf("  %d error(s), %d warning(s)\n", errs, warns)
	if r.strict && warns > 0 {
		p.printf("  Strict mode enabled: treating warnings as errors\n")
	}
	return p.err
}
