package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/assessment"
	"mercator-hq/perfscore/pkg/cli"
)

var assessFlags struct {
	operations float64
	errorRate  float64
	operator   string
	ruleset    string
	format     string
	trace      bool
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score one operator",
	Long: `Evaluate an operator's operation count and error rate against the rule set
and print the score, the performance category and the inference breakdown.

By default only non-zero memberships and fired rules are listed. --trace
lists every term and every rule so the full evaluation can be followed.

Examples:
  # Score with the built-in rule set
  perfscore assess --operations 18 --error-rate 0.05

  # Use a custom rule set and print JSON
  perfscore assess --operations 7 --error-rate 0.3 --ruleset rules.yaml --format json

  # Full diagnostic trace
  perfscore assess --operations 10 --error-rate 0.4 --trace`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().Float64Var(&assessFlags.operations, "operations", 0, "number of operations completed")
	assessCmd.Flags().Float64Var(&assessFlags.errorRate, "error-rate", 0, "error rate between 0 and 1")
	assessCmd.Flags().StringVar(&assessFlags.operator, "operator", "", "operator identifier")
	assessCmd.Flags().StringVarP(&assessFlags.ruleset, "ruleset", "r", "", "rule-set file (overrides ruleset.path)")
	assessCmd.Flags().StringVarP(&assessFlags.format, "format", "f", "text", "output format: text, json")
	assessCmd.Flags().BoolVar(&assessFlags.trace, "trace", false, "include zero memberships and rules that did not fire")

	for _, name := range []string{"operations", "error-rate"} {
		if err := assessCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}

func runAssess(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(assessFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svcCfg := assessment.ConfigFrom(&cfg.RuleSet)
	if assessFlags.ruleset != "" {
		svcCfg.Path = assessFlags.ruleset
	}

	svc, err := assessment.New(svcCfg, assessment.WithLogger(commandLogger()))
	if err != nil {
		return cli.NewCommandError("assess", err)
	}

	a, err := svc.Assess(commandContext(cmd), assessment.Request{
		OperatorID: assessFlags.operator,
		Operations: assessFlags.operations,
		ErrorRate:  assessFlags.errorRate,
	})
	if err != nil {
		return cli.NewCommandError("assess", err)
	}

	var out any = a
	if format == cli.FormatText {
		out = &assessReport{Assessment: a, rules: ruleText(svc), trace: assessFlags.trace}
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), out)
}

// ruleText maps rule names to "antecedent -> consequent".
func ruleText(svc *assessment.Service) map[string]string {
	text := make(map[string]string)
	if engine := svc.Engine(); engine != nil {
		for _, r := range engine.Rules() {
			text[r.Name] = r.Antecedent.String() + " -> " + r.Consequent
		}
	}
	return text
}

// assessReport is the text rendering of an assessment.
type assessReport struct {
	*assessment.Assessment
	rules map[string]string
	trace bool
}

func (r *assessReport) WriteText(w io.Writer) error {
	p := &printer{w: w}

	if r.OperatorID != "" {
		p.printf("Operator:  %s\n", r.OperatorID)
	}
	p.printf("Inputs:    operations=%g error_rate=%g\n", r.Operations, r.ErrorRate)
	p.printf("Score:     %.2f\n", r.Score)
	p.printf("Category:  %s\n", r.Label)
	p.printf("Rule set:  %s %s (%s)\n", r.RuleSet.Name, r.RuleSet.Version, r.RuleSet.Source)

	p.printf("\nMemberships:\n")
	shown := 0
	for _, m := range r.Result.Memberships {
		if m.Degree == 0 && !r.trace {
			continue
		}
		p.printf("  %-24s %.3f\n", m.Variable+"."+m.Term, m.Degree)
		shown++
	}
	if shown == 0 {
		p.printf("  (no input term has a non-zero degree)\n")
	}

	p.printf("\nRules:\n")
	shown = 0
	for _, a := range r.Result.Activations {
		fired := a.Strength > 0
		if !fired && !r.trace {
			continue
		}
		mark := "✓"
		if !fired {
			mark = "-"
		}
		p.printf("  %s %-26s %.3f  %s\n", mark, a.Name, a.Strength, r.rules[a.Name])
		shown++
	}
	if shown == 0 {
		p.printf("  (no rule fired, score defaults to 0)\n")
	}
	return p.err
}

// printer remembers the first write error so reports can be written
// without checking every line.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
