package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
)

func setRunFlags(logLevel string, dryRun bool) {
	runFlags.listenAddress = ""
	runFlags.logLevel = logLevel
	runFlags.dryRun = dryRun
}

func TestRunServer_DryRun(t *testing.T) {
	tests := []struct {
		name   string
		config string
		want   string
	}{
		{
			name:   "built-in defaults",
			config: "",
			want:   "✓ Rule set valid: operator-performance 1.0.0 (5 rules, embedded:performance.yaml)",
		},
		{
			name:   "rule set file",
			config: "ruleset:\n  path: testdata/unused-term.yaml\n",
			want:   "✓ Rule set valid: operator-performance-peak 1.0.0 (5 rules, testdata/unused-term.yaml)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, tt.config)
			setRunFlags("", true)

			out, err := execute(t, runServer)
			if err != nil {
				t.Fatalf("runServer() --dry-run failed: %v", err)
			}
			if !strings.Contains(out, "✓ Configuration valid") || !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunServer_DryRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		logLevel string
		wantCode int
	}{
		{
			name:     "invalid rule set",
			config:   "ruleset:\n  path: testdata/invalid-ruleset.yaml\n",
			wantCode: cli.ExitFailure,
		},
		{
			name:     "unbound input",
			config:   "ruleset:\n  path: testdata/performance.yaml\n  operations_input: throughput\n",
			wantCode: cli.ExitFailure,
		},
		{
			name:     "malformed config",
			config:   "server: [not, a, map]\n",
			wantCode: cli.ExitConfig,
		},
		{
			name:     "bad log level override",
			logLevel: "verbose",
			wantCode: cli.ExitConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, tt.config)
			setRunFlags(tt.logLevel, true)

			_, err := execute(t, runServer)
			if err == nil {
				t.Fatal("runServer() succeeded, want error")
			}
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Errorf("ExitCode() = %d, want %d (err: %v)", code, tt.wantCode, err)
			}
		})
	}
}

func TestRunServer_StartsAndStops(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "performance.yaml")
	data, err := os.ReadFile("testdata/performance.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rules, data, 0o644); err != nil {
		t.Fatal(err)
	}

	useConfig(t, fmt.Sprintf(`server:
  listen_address: "127.0.0.1:0"
ruleset:
  path: %q
  watch: true
evidence:
  backend: memory
telemetry:
  logging:
    level: error
`, rules))
	setRunFlags("", false)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(ctx)

	if err := runServer(cmd, nil); err != nil {
		t.Fatalf("runServer() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"✓ Configuration loaded",
		"✓ Evidence store initialized (memory)",
		"✓ Rule set loaded: operator-performance 1.0.0 (5 rules)",
		"✓ Watching " + rules,
		"✓ Metrics endpoint: http://127.0.0.1:0/metrics",
		"✓ Server stopped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
