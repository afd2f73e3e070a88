package ruleset

import (
	"fmt"
)

// Report is the outcome of linting one rule-set file.
type Report struct {
	File     string
	Valid    bool
	Errors   []error
	Warnings []string
	RuleSet  *RuleSet
}

// Lint parses a rule set and reports errors and warnings. Warnings cover
// control points outside their universe, input terms no rule references
// and output terms no rule concludes.
func Lint(path string) *Report {
	report := &Report{File: path}

	rs, err := Parse(path)
	if err != nil {
		report.Errors = flatten(err)
		return report
	}
	report.Valid = true
	report.RuleSet = rs
	report.Warnings = Warnings(rs)
	return report
}

// Warnings returns the non-fatal findings for a parsed rule set.
func Warnings(rs *RuleSet) []string {
	engine := rs.Engine
	warnings := engine.Warnings()

	referenced := make(map[string]bool)
	concluded := make(map[string]bool)
	for _, r := range engine.Rules() {
		for _, t := range r.Antecedent.Terms() {
			referenced[t.String()] = true
		}
		concluded[r.Consequent] = true
	}

	for _, v := range engine.Inputs() {
		for _, label := range v.Labels() {
			if !referenced[v.Name()+"."+label] {
				warnings = append(warnings, fmt.Sprintf("input term %s.%s is not used by any rule", v.Name(), label))
			}
		}
	}
	out := engine.Output()
	for _, label := range out.Labels() {
		if !concluded[label] {
			warnings = append(warnings, fmt.Sprintf("output term %s.%s is not concluded by any rule", out.Name(), label))
		}
	}
	return warnings
}

// flatten expands joined errors into a list for reporting.
func flatten(err error) []error {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		return multi.Unwrap()
	}
	return []error{err}
}
