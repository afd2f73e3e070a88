package assessment

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/recorder"
	"mercator-hq/perfscore/pkg/evidence/storage"
	"mercator-hq/perfscore/pkg/fuzzy"
	"mercator-hq/perfscore/pkg/fuzzy/ruleset"
	"mercator-hq/perfscore/pkg/telemetry/logging"
	"mercator-hq/perfscore/pkg/telemetry/metrics"
	"mercator-hq/perfscore/pkg/telemetry/tracing"
)

// writeRuleSet writes the embedded rule set, optionally edited, to dir.
func writeRuleSet(t *testing.T, dir string, edit func(string) string) string {
	t.Helper()
	src := string(ruleset.DefaultYAML())
	if edit != nil {
		src = edit(src)
	}
	path := filepath.Join(dir, "performance.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write rule set: %v", err)
	}
	return path
}

func newTestService(t *testing.T, cfg Config, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	svc, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return svc
}

func TestService_Assess(t *testing.T) {
	svc := newTestService(t, Config{})

	tests := []struct {
		name      string
		req       Request
		want      fuzzy.Category
		wantFired []string
	}{
		{"excellent operator", Request{OperatorID: "op-1", Operations: 18, ErrorRate: 0.05}, fuzzy.CategoryHigh, []string{"productive-and-accurate"}},
		{"weak operator", Request{Operations: 4, ErrorRate: 0.85}, fuzzy.CategoryLow, []string{"idle-or-sloppy"}},
		{"average operator", Request{Operations: 10, ErrorRate: 0.40}, fuzzy.CategoryMedium, []string{"average"}},
		{"busy but sloppy", Request{Operations: 17, ErrorRate: 0.75}, fuzzy.CategoryLow, []string{"idle-or-sloppy", "busy-but-sloppy"}},
		{"slow but careful", Request{Operations: 9, ErrorRate: 0.08}, fuzzy.CategoryHigh, []string{"steady-and-accurate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.Assess(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Assess() failed: %v", err)
			}
			if a.Category != tt.want {
				t.Errorf("Category = %v (score %.2f), want %v", a.Category, a.Score, tt.want)
			}
			if a.Label != tt.want.Label() {
				t.Errorf("Label = %q, want %q", a.Label, tt.want.Label())
			}
			if got := strings.Join(a.FiredRules(), ","); got != strings.Join(tt.wantFired, ",") {
				t.Errorf("FiredRules() = %s, want %v", got, tt.wantFired)
			}
			if a.ID == "" || a.EvaluatedAt.IsZero() {
				t.Errorf("ID = %q, EvaluatedAt = %v; both should be set", a.ID, a.EvaluatedAt)
			}
			if a.RuleSet.Source != ruleset.DefaultSource {
				t.Errorf("RuleSet.Source = %q", a.RuleSet.Source)
			}
		})
	}
}

func TestService_AssessMediumIsCentred(t *testing.T) {
	svc := newTestService(t, Config{})

	a, err := svc.Assess(context.Background(), Request{Operations: 10, ErrorRate: 0.40})
	if err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}
	if math.Abs(a.Score-50) > 0.5 {
		t.Errorf("Score = %v, want about 50", a.Score)
	}
}

func TestService_AssessInvalidInput(t *testing.T) {
	svc := newTestService(t, Config{})

	tests := []struct {
		name string
		req  Request
	}{
		{"NaN operations", Request{Operations: math.NaN(), ErrorRate: 0.1}},
		{"infinite error rate", Request{Operations: 10, ErrorRate: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Assess(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Assess() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestService_NotReady(t *testing.T) {
	var svc *Service
	if _, err := svc.Assess(context.Background(), Request{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("nil Assess() error = %v, want ErrNotReady", err)
	}
	if err := svc.Check(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("nil Check() error = %v, want ErrNotReady", err)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	valid := writeRuleSet(t, dir, nil)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing file",
			cfg:     Config{Path: filepath.Join(dir, "nope.yaml")},
			wantErr: os.ErrNotExist,
		},
		{
			name:    "unbound operations input",
			cfg:     Config{Path: valid, Bindings: Bindings{Operations: "throughput"}},
			wantErr: ErrMissingBinding,
		},
		{
			name:    "unbound error rate input",
			cfg:     Config{Bindings: Bindings{ErrorRate: "defects"}},
			wantErr: ErrMissingBinding,
		},
		{
			name:    "both fields bound to one input",
			cfg:     Config{Path: valid, Bindings: Bindings{Operations: "operations", ErrorRate: "operations"}},
			wantErr: ErrConflictingBinding,
		},
		{
			name:    "error rate bound to default operations input",
			cfg:     Config{Bindings: Bindings{ErrorRate: config.DefaultOperationsInput}},
			wantErr: ErrConflictingBinding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, WithLogger(logging.Discard()))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_CustomBindings(t *testing.T) {
	path := writeRuleSet(t, t.TempDir(), func(src string) string {
		src = strings.ReplaceAll(src, "operations", "throughput")
		return strings.ReplaceAll(src, "error_rate", "defects")
	})

	svc := newTestService(t, Config{
		Path:     path,
		Bindings: Bindings{Operations: "throughput", ErrorRate: "defects"},
	})

	a, err := svc.Assess(context.Background(), Request{Operations: 18, ErrorRate: 0.05})
	if err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}
	if a.Category != fuzzy.CategoryHigh {
		t.Errorf("Category = %v, want high", a.Category)
	}
}

func TestService_ReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleSet(t, dir, nil)

	var logs bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New() failed: %v", err)
	}
	svc, err := New(Config{Path: path}, WithLogger(logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	before, _ := svc.RuleSet()

	if err := os.WriteFile(path, []byte("inputs: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reload(context.Background()); err == nil {
		t.Fatal("Reload() of malformed file succeeded")
	}

	after, ok := svc.RuleSet()
	if !ok || after.Checksum != before.Checksum {
		t.Errorf("rule set changed after failed reload: %+v", after)
	}
	if _, err := svc.Assess(context.Background(), Request{Operations: 18, ErrorRate: 0.05}); err != nil {
		t.Errorf("Assess() after failed reload: %v", err)
	}
	if !strings.Contains(logs.String(), "keeping previous rule set") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestService_ReloadRejectsOversizedUniverse(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleSet(t, dir, nil)
	svc := newTestService(t, Config{Path: path})
	before, _ := svc.RuleSet()

	writeRuleSet(t, dir, func(src string) string {
		return strings.Replace(src,
			"universe: {min: 0, max: 100, step: 1}",
			"universe: {min: 0, max: 1e12, step: 1e-9}", 1)
	})
	err := svc.Reload(context.Background())
	if !errors.Is(err, fuzzy.ErrInvalidUniverse) {
		t.Fatalf("Reload() error = %v, want ErrInvalidUniverse", err)
	}
	if after, _ := svc.RuleSet(); after.Checksum != before.Checksum {
		t.Error("rule set replaced by a rejected file")
	}
}

func TestService_ReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleSet(t, dir, nil)

	loadedAt := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := newTestService(t, Config{Path: path}, WithClock(func() time.Time { return loadedAt }))

	writeRuleSet(t, dir, func(src string) string {
		return strings.Replace(src, "version: 1.0.0", "version: 1.1.0", 1)
	})
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	info, _ := svc.RuleSet()
	if info.Version != "1.1.0" {
		t.Errorf("Version = %q, want 1.1.0", info.Version)
	}
	if info.Source != path || info.Rules != 5 {
		t.Errorf("info = %+v", info)
	}
	if !info.LoadedAt.Equal(loadedAt) {
		t.Errorf("LoadedAt = %v, want %v", info.LoadedAt, loadedAt)
	}
}

func TestService_Metrics(t *testing.T) {
	cfg := config.Default().Telemetry.Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&cfg, registry)

	svc := newTestService(t, Config{}, WithMetrics(collector))
	for _, req := range []Request{
		{Operations: 18, ErrorRate: 0.05},
		{Operations: 9, ErrorRate: 0.08},
		{Operations: 4, ErrorRate: 0.85},
	} {
		if _, err := svc.Assess(context.Background(), req); err != nil {
			t.Fatalf("Assess() failed: %v", err)
		}
	}
	_ = svc.Reload(context.Background())

	expected := `
# HELP perfscore_assessment_assessments_total Total number of operator assessments by performance category
# TYPE perfscore_assessment_assessments_total counter
perfscore_assessment_assessments_total{category="high"} 2
perfscore_assessment_assessments_total{category="low"} 1
# HELP perfscore_assessment_ruleset_reloads_total Total number of rule-set load attempts by outcome
# TYPE perfscore_assessment_ruleset_reloads_total counter
perfscore_assessment_ruleset_reloads_total{status="success"} 2
# HELP perfscore_assessment_ruleset_rules Number of rules in the active rule set
# TYPE perfscore_assessment_ruleset_rules gauge
perfscore_assessment_ruleset_rules 5
`
	err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"perfscore_assessment_assessments_total",
		"perfscore_assessment_ruleset_reloads_total",
		"perfscore_assessment_ruleset_rules",
	)
	if err != nil {
		t.Error(err)
	}
}

func TestService_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tcfg := config.Default().Telemetry.Tracing
	tcfg.Enabled = true
	tcfg.Sampler = "always"
	tracer, err := tracing.New(&tcfg, tracing.WithExporter(exporter), tracing.WithoutGlobal())
	if err != nil {
		t.Fatalf("tracing.New() failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	svc := newTestService(t, Config{}, WithTracer(tracer))
	if _, err := svc.Assess(context.Background(), Request{Operations: 18, ErrorRate: 0.05}); err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	if got := strings.Join(names, ","); got != "ruleset.reload,assessment.evaluate" {
		t.Errorf("spans = %s", got)
	}
}

func TestService_RecordsEvidence(t *testing.T) {
	store := storage.NewMemoryStorage()
	rec := recorder.New(store, nil, recorder.WithLogger(logging.Discard()))

	svc := newTestService(t, Config{}, WithRecorder(rec))
	a, err := svc.Assess(context.Background(), Request{OperatorID: "op-42", Operations: 17, ErrorRate: 0.75})
	if err != nil {
		t.Fatalf("Assess() failed: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	records, err := store.Query(context.Background(), &evidence.Query{OperatorID: "op-42"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}
	r := records[0]
	if r.ID != a.ID {
		t.Errorf("record ID = %q, want assessment ID %q", r.ID, a.ID)
	}
	if r.Score != a.Score || r.Category != a.Category {
		t.Errorf("record outcome = (%v, %s), want (%v, %s)", r.Score, r.Category, a.Score, a.Category)
	}
	if r.RuleSetChecksum != a.RuleSet.Checksum {
		t.Errorf("RuleSetChecksum = %q, want %q", r.RuleSetChecksum, a.RuleSet.Checksum)
	}
	if got := strings.Join(r.FiredRules(), ","); got != "idle-or-sloppy,busy-but-sloppy" {
		t.Errorf("FiredRules() = %s", got)
	}
}

func TestService_ConcurrentAssessAndReload(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleSet(t, dir, nil)
	svc := newTestService(t, Config{Path: path})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			_ = svc.Reload(ctx)
		}
	}()

	for i := 0; i < 200; i++ {
		a, err := svc.Assess(context.Background(), Request{Operations: 18, ErrorRate: 0.05})
		if err != nil {
			t.Fatalf("Assess() failed: %v", err)
		}
		if a.Category != fuzzy.CategoryHigh {
			t.Fatalf("Category = %v, want high", a.Category)
		}
	}
	cancel()
	<-done
}
