package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/perfscore/pkg/cli"
)

func setLintFlags(file, dir string, strict bool, format string) {
	lintFlags.file = file
	lintFlags.dir = dir
	lintFlags.strict = strict
	lintFlags.format = format
}

func TestLintRuleSets_ValidFile(t *testing.T) {
	setLintFlags("testdata/performance.yaml", "", true, "text")

	out, err := execute(t, lintRuleSets)
	if err != nil {
		t.Fatalf("lintRuleSets() with valid file returned error: %v", err)
	}
	for _, want := range []string{
		"Validating testdata/performance.yaml...",
		"✓ Syntax valid",
		"✓ operator-performance 1.0.0: 5 rule(s) build a valid engine",
		"0 error(s), 0 warning(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLintRuleSets_InvalidFile(t *testing.T) {
	setLintFlags("testdata/invalid-ruleset.yaml", "", false, "text")

	out, err := execute(t, lintRuleSets)
	if err == nil {
		t.Fatal("lintRuleSets() with invalid file should return error")
	}
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitFailure)
	}
	if !strings.Contains(out, "✗ Error:") || !strings.Contains(out, "bad-antecedent") {
		t.Errorf("output does not report the unknown term:\n%s", out)
	}
}

func TestLintRuleSets_Warnings(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{name: "warnings allowed", strict: false, wantErr: false},
		{name: "strict mode", strict: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setLintFlags("testdata/unused-term.yaml", "", tt.strict, "text")

			out, err := execute(t, lintRuleSets)
			if (err != nil) != tt.wantErr {
				t.Errorf("lintRuleSets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, "⚠  Warning: input term operations.peak is not used by any rule") {
				t.Errorf("output missing unused-term warning:\n%s", out)
			}
		})
	}
}

func TestLintRuleSets_NonexistentFile(t *testing.T) {
	setLintFlags("testdata/nonexistent.yaml", "", false, "text")

	out, err := execute(t, lintRuleSets)
	if err == nil {
		t.Fatal("lintRuleSets() with nonexistent file should return error")
	}
	if !strings.Contains(out, "[io]") {
		t.Errorf("output does not classify the error as io:\n%s", out)
	}
}

func TestLintRuleSets_NoFileOrDir(t *testing.T) {
	setLintFlags("", "", false, "text")

	_, err := execute(t, lintRuleSets)
	if code := cli.ExitCode(err); err == nil || code != cli.ExitConfig {
		t.Errorf("lintRuleSets() without file or dir: err = %v, code = %d", err, code)
	}
}

func TestLintRuleSets_Dir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"performance.yaml", "invalid-ruleset.yaml"} {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		// One file uses the .yml extension.
		dst := filepath.Join(dir, strings.Replace(name, "invalid-ruleset.yaml", "invalid.yml", 1))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	setLintFlags("", dir, false, "json")

	out, err := execute(t, lintRuleSets)
	if err == nil {
		t.Error("lintRuleSets() over a directory with an invalid file should return error")
	}

	var results []ValidationResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Valid || results[0].Rules != 5 {
		t.Errorf("performance.yaml result = %+v", results[0])
	}
	if results[1].Valid || len(results[1].Errors) == 0 {
		t.Errorf("invalid.yml result = %+v", results[1])
	}
	for _, e := range results[1].Errors {
		if e.Severity != "error" || e.Type == "" {
			t.Errorf("error entry = %+v", e)
		}
	}
}

func TestLintRuleSets_EmptyDir(t *testing.T) {
	setLintFlags("", t.TempDir(), false, "text")

	if _, err := execute(t, lintRuleSets); err == nil {
		t.Error("lintRuleSets() over an empty directory should return error")
	}
}
