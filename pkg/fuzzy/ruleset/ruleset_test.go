package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/perfscore/pkg/fuzzy"
)

func TestDefault(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if rs.Name != "operator-performance" {
		t.Errorf("Name = %q", rs.Name)
	}
	if rs.Source != DefaultSource {
		t.Errorf("Source = %q", rs.Source)
	}
	if len(rs.Checksum) != 64 {
		t.Errorf("Checksum = %q, want hex SHA-256", rs.Checksum)
	}
	if got := len(rs.Engine.Rules()); got != 5 {
		t.Errorf("rules = %d, want 5", got)
	}

	tests := []struct {
		ops, errRate float64
		want         fuzzy.Category
	}{
		{18, 0.05, fuzzy.CategoryHigh},
		{4, 0.85, fuzzy.CategoryLow},
		{10, 0.40, fuzzy.CategoryMedium},
		{17, 0.75, fuzzy.CategoryLow},
		{9, 0.08, fuzzy.CategoryHigh},
	}
	for _, tt := range tests {
		res := rs.Engine.Evaluate(fuzzy.Inputs{"operations": tt.ops, "error_rate": tt.errRate})
		if res.Category != tt.want {
			t.Errorf("Evaluate(%v, %v) = %v (%.2f), want %v", tt.ops, tt.errRate, res.Category, res.Score, tt.want)
		}
	}
}

func TestDefault_RuleExpressions(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	rules := rs.Engine.Rules()
	if got := rules[0].Antecedent.String(); got != "(operations.high AND error_rate.low)" {
		t.Errorf("rule 1 = %s", got)
	}
	if got := rules[1].Antecedent.String(); got != "(operations.low OR error_rate.high)" {
		t.Errorf("rule 2 = %s", got)
	}
}

func TestParse_Trapezoid(t *testing.T) {
	rs, err := Parse(filepath.Join("testdata", "trapezoid.yaml"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	rules := rs.Engine.Rules()
	if rules[1].Name != "rule-2" {
		t.Errorf("unnamed rule got name %q, want rule-2", rules[1].Name)
	}

	res := rs.Engine.Evaluate(fuzzy.Inputs{"load": 1})
	if res.Score >= 40 {
		t.Errorf("light load score = %v, want below 40", res.Score)
	}
	res = rs.Engine.Evaluate(fuzzy.Inputs{"load": 9})
	if res.Score < 70 {
		t.Errorf("heavy load score = %v, want at least 70", res.Score)
	}
}

func TestParse_UnknownTerm(t *testing.T) {
	_, err := Parse(filepath.Join("testdata", "unknown_term.yaml"))
	if !errors.Is(err, fuzzy.ErrUnknownTerm) {
		t.Fatalf("Parse() error = %v, want ErrUnknownTerm", err)
	}
	for _, want := range []string{"bad-antecedent", "bad-consequent"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParse_MalformedMembershipFunction(t *testing.T) {
	_, err := Parse(filepath.Join("testdata", "malformed.yaml"))
	if !errors.Is(err, fuzzy.ErrMalformedMembershipFunction) {
		t.Fatalf("Parse() error = %v, want ErrMalformedMembershipFunction", err)
	}
}

func TestParseBytes_Structural(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "empty document",
			yaml:    "{}",
			wantMsg: "name is required",
		},
		{
			name: "bad condition operator",
			yaml: `
name: x
inputs:
  - name: a
    universe: {min: 0, max: 1, step: 0.1}
    terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
output:
  name: b
  universe: {min: 0, max: 1, step: 0.1}
  terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
rules:
  - name: r
    when: {not: [a.lo]}
    then: lo
`,
			wantMsg: `unknown condition operator "not"`,
		},
		{
			name: "missing universe",
			yaml: `
name: x
inputs:
  - name: a
    terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
output:
  name: b
  universe: {min: 0, max: 1, step: 0.1}
  terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
rules:
  - {when: a.lo, then: lo}
`,
			wantMsg: "needs universe",
		},
		{
			name: "bare term reference",
			yaml: `
name: x
inputs:
  - name: a
    universe: {min: 0, max: 1, step: 0.1}
    terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
output:
  name: b
  universe: {min: 0, max: 1, step: 0.1}
  terms: [{name: lo, shape: triangular, points: [0, 0, 1]}]
rules:
  - {name: r, when: lo, then: lo}
`,
			wantMsg: "variable.term",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.yaml), "inline.yaml")
			if err == nil {
				t.Fatal("ParseBytes() expected error")
			}
			var perrs ParseErrors
			if !errors.As(err, &perrs) {
				t.Fatalf("error %T is not ParseErrors: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseBytes_OversizedUniverse(t *testing.T) {
	src := strings.Replace(string(DefaultYAML()),
		"universe: {min: 0, max: 100, step: 1}",
		"universe: {min: 0, max: 1e12, step: 1e-9}", 1)

	_, err := ParseBytes([]byte(src), "huge.yaml")
	if !errors.Is(err, fuzzy.ErrInvalidUniverse) {
		t.Fatalf("ParseBytes() error = %v, want ErrInvalidUniverse", err)
	}
}

func TestParseBytes_Syntax(t *testing.T) {
	_, err := ParseBytes([]byte("name: [unclosed"), "bad.yaml")
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Type != ErrorTypeSyntax {
		t.Errorf("error = %v, want syntax ParseError", err)
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.yaml"))
	var perr *ParseError
	if !errors.As(err, &perr) || perr.Type != ErrorTypeIO {
		t.Errorf("error = %v, want io ParseError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error does not wrap os.ErrNotExist")
	}
}

func TestLint(t *testing.T) {
	report := Lint(filepath.Join("testdata", "trapezoid.yaml"))
	if !report.Valid {
		t.Fatalf("Lint() errors = %v", report.Errors)
	}

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "effort.unused") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings() = %v, want unused output term", report.Warnings)
	}

	report = Lint(filepath.Join("testdata", "unknown_term.yaml"))
	if report.Valid || len(report.Errors) == 0 {
		t.Errorf("Lint() on broken file = %+v", report)
	}
}

func TestWarnings_OutOfUniverse(t *testing.T) {
	data := strings.Replace(string(DefaultYAML()), "points: [12, 20, 20]", "points: [12, 20, 25]", 1)
	rs, err := ParseBytes([]byte(data), "edited.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	warnings := Warnings(rs)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "operations.high") {
		t.Errorf("Warnings() = %v", warnings)
	}
}

func TestSuite_Run(t *testing.T) {
	rs, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	suite, err := LoadSuite(filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("LoadSuite() error = %v", err)
	}

	results := suite.Run(rs.Engine)
	passed, failed := Summary(results)
	if passed != 2 || failed != 1 {
		t.Fatalf("Summary() = %d passed, %d failed; want 2, 1", passed, failed)
	}
	if results[2].Passed || len(results[2].Failures) != 1 {
		t.Errorf("deliberately wrong scenario = %+v", results[2])
	}
}

func TestLoadSuite_UnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	content := "scenarios:\n  - name: x\n    inputs: {operations: 1}\n    expect: {category: stellar}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSuite(path); err == nil {
		t.Error("LoadSuite() accepted an unknown category")
	}
}
