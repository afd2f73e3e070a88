package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/storage"
	"mercator-hq/perfscore/pkg/fuzzy"
	"mercator-hq/perfscore/pkg/telemetry/logging"
)

// seedEvidence writes a config pointing at a fresh SQLite store and fills it
// with three records: two for op-1 (recent high, 40-day-old low) and one
// medium for op-2.
func seedEvidence(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "evidence.db")
	path := useConfig(t, fmt.Sprintf("evidence:\n  backend: sqlite\n  sqlite:\n    path: %q\n", dbPath))

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	store, err := storage.New(&cfg.Evidence, logging.Discard())
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	records := []*evidence.Record{
		{
			ID: "rec-a", OperatorID: "op-1", Operations: 18, ErrorRate: 0.05,
			Score: 88, Category: fuzzy.CategoryHigh,
			Activations: []fuzzy.RuleActivation{{Index: 0, Name: "productive-and-accurate", Consequent: "high", Strength: 0.75}},
			EvaluatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: "rec-b", OperatorID: "op-1", Operations: 4, ErrorRate: 0.85,
			Score: 22, Category: fuzzy.CategoryLow,
			Activations: []fuzzy.RuleActivation{{Index: 1, Name: "idle-or-sloppy", Consequent: "low", Strength: 0.625}},
			EvaluatedAt: now.AddDate(0, 0, -40),
		},
		{
			ID: "rec-c", OperatorID: "op-2", Operations: 10, ErrorRate: 0.4,
			Score: 50, Category: fuzzy.CategoryMedium,
			EvaluatedAt: now.Add(-time.Hour),
		},
	}
	for _, r := range records {
		r.RecordedAt = r.EvaluatedAt
		if err := store.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) failed: %v", r.ID, err)
		}
	}
}

func resetEvidenceFlags() {
	evidenceFlags.operator = ""
	evidenceFlags.category = ""
	evidenceFlags.since = ""
	evidenceFlags.until = ""
	evidenceFlags.minScore = -1
	evidenceFlags.maxScore = -1
	evidenceFlags.limit = 0
	evidenceFlags.offset = 0
	evidenceFlags.order = "desc"
	evidenceFlags.format = "text"
	evidenceFlags.output = ""
}

func TestQueryEvidence_Text(t *testing.T) {
	seedEvidence(t)
	resetEvidenceFlags()

	out, err := execute(t, queryEvidence)
	if err != nil {
		t.Fatalf("queryEvidence() failed: %v", err)
	}
	if !strings.Contains(out, "Showing 3 of 3 record(s)") {
		t.Errorf("output missing summary:\n%s", out)
	}
	// Newest first: op-2 (1h ago) before op-1's 40-day-old record.
	medium := strings.Index(out, "medium")
	low := strings.Index(out, "idle-or-sloppy")
	if medium < 0 || low < 0 || medium > low {
		t.Errorf("records not newest first:\n%s", out)
	}
}

func TestQueryEvidence_Filters(t *testing.T) {
	seedEvidence(t)

	tests := []struct {
		name    string
		setup   func()
		wantIDs []string
	}{
		{
			name:    "operator",
			setup:   func() { evidenceFlags.operator = "op-1" },
			wantIDs: []string{"rec-a", "rec-b"},
		},
		{
			name:    "operator oldest first",
			setup:   func() { evidenceFlags.operator = "op-1"; evidenceFlags.order = "asc" },
			wantIDs: []string{"rec-b", "rec-a"},
		},
		{
			name:    "category case-insensitive",
			setup:   func() { evidenceFlags.category = "LOW" },
			wantIDs: []string{"rec-b"},
		},
		{
			name:    "min score",
			setup:   func() { evidenceFlags.minScore = 60 },
			wantIDs: []string{"rec-a"},
		},
		{
			name: "since",
			setup: func() {
				evidenceFlags.since = time.Now().UTC().AddDate(0, 0, -1).Format(time.RFC3339)
			},
			wantIDs: []string{"rec-c", "rec-a"},
		},
		{
			name:    "limit and offset",
			setup:   func() { evidenceFlags.limit = 1; evidenceFlags.offset = 1 },
			wantIDs: []string{"rec-a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEvidenceFlags()
			evidenceFlags.format = "json"
			tt.setup()

			out, err := execute(t, queryEvidence)
			if err != nil {
				t.Fatalf("queryEvidence() failed: %v", err)
			}
			var records []evidence.Record
			if err := json.Unmarshal([]byte(out), &records); err != nil {
				t.Fatalf("output is not a JSON array: %v\n%s", err, out)
			}
			var ids []string
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("got %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestQueryEvidence_CSVToFile(t *testing.T) {
	seedEvidence(t)
	resetEvidenceFlags()
	evidenceFlags.format = "csv"
	evidenceFlags.operator = "op-1"
	evidenceFlags.output = filepath.Join(t.TempDir(), "export.csv")

	out, err := execute(t, queryEvidence)
	if err != nil {
		t.Fatalf("queryEvidence() failed: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing when --output is set", out)
	}

	f, err := os.Open(evidenceFlags.output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "id" {
		t.Errorf("rows = %v, want header + 2", rows)
	}
}

func TestQueryEvidence_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{name: "bad since", setup: func() { evidenceFlags.since = "yesterday" }},
		{name: "limit over maximum", setup: func() { evidenceFlags.limit = 100000 }},
		{name: "unknown category", setup: func() { evidenceFlags.category = "excellent" }},
		{name: "bad order", setup: func() { evidenceFlags.order = "random" }},
		{name: "bad format", setup: func() { evidenceFlags.format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedEvidence(t)
			resetEvidenceFlags()
			tt.setup()

			_, err := execute(t, queryEvidence)
			if code := cli.ExitCode(err); err == nil || code != cli.ExitConfig {
				t.Errorf("queryEvidence() err = %v, exit code %d, want %d", err, code, cli.ExitConfig)
			}
		})
	}
}

func TestQueryEvidence_Disabled(t *testing.T) {
	useConfig(t, "evidence:\n  enabled: false\n")
	resetEvidenceFlags()

	_, err := execute(t, queryEvidence)
	if code := cli.ExitCode(err); err == nil || code != cli.ExitConfig {
		t.Errorf("queryEvidence() err = %v, exit code %d", err, code)
	}
}

func TestPruneEvidence(t *testing.T) {
	tests := []struct {
		name       string
		days       int
		maxRecords int64
		want       string
		remaining  int
	}{
		{name: "by age", days: 30, maxRecords: -1, want: "✓ Pruned 1 record(s) (retention: 30 days", remaining: 2},
		{name: "by count", days: 0, maxRecords: 1, want: "✓ Pruned 2 record(s) (retention: forever, max records: 1)", remaining: 1},
		{name: "nothing to do", days: 0, maxRecords: 0, want: "✓ Pruned 0 record(s)", remaining: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seedEvidence(t)
			pruneFlags.days = tt.days
			pruneFlags.maxRecords = tt.maxRecords

			out, err := execute(t, pruneEvidence)
			if err != nil {
				t.Fatalf("pruneEvidence() failed: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}

			resetEvidenceFlags()
			evidenceFlags.format = "json"
			out, err = execute(t, queryEvidence)
			if err != nil {
				t.Fatalf("queryEvidence() failed: %v", err)
			}
			var records []evidence.Record
			if err := json.Unmarshal([]byte(out), &records); err != nil {
				t.Fatal(err)
			}
			if len(records) != tt.remaining {
				t.Errorf("%d records remain, want %d", len(records), tt.remaining)
			}
		})
	}
}
