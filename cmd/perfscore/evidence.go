package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/export"
	"mercator-hq/perfscore/pkg/evidence/query"
	"mercator-hq/perfscore/pkg/evidence/retention"
	"mercator-hq/perfscore/pkg/evidence/storage"
	"mercator-hq/perfscore/pkg/fuzzy"
)

var evidenceFlags struct {
	operator string
	category string
	since    string
	until    string
	minScore float64
	maxScore float64
	limit    int
	offset   int
	order    string
	format   string
	output   string
}

var pruneFlags struct {
	days       int
	maxRecords int64
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query and maintain recorded assessments",
	Long: `Query, export and prune the evidence recorded for every assessment.

Each record holds the inputs, the score and category, the degree of every
input term, the strength of every rule and the rule set that produced it.

Subcommands:
  query   - Query evidence records with filters
  prune   - Apply the retention policy once

Examples:
  # Last records for one operator
  perfscore evidence query --operator op-17

  # Low performers since April, as CSV
  perfscore evidence query --category low --since 2026-04-01T00:00:00Z --format csv

  # Apply retention now
  perfscore evidence prune --days 30`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records with filters. Filters combine with AND.

Times are RFC3339 and apply to the evaluation time. Results are newest first
unless --order asc is given.

Examples:
  # Filter by operator and time range
  perfscore evidence query --operator op-17 --since 2026-04-01T00:00:00Z --until 2026-05-01T00:00:00Z

  # Filter by score
  perfscore evidence query --min-score 60

  # Export to JSON
  perfscore evidence query --format json --output evidence.json`,
	RunE: queryEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete evidence outside the retention policy",
	Long: `Delete records older than the retention period and trim the store to the
maximum record count. Flags override evidence.retention from the configuration.`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidencePruneCmd)

	// Flags for query command
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.operator, "operator", "", "filter by operator ID")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.category, "category", "", "filter by category: high, medium, low")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.since, "since", "", "only records evaluated at or after this time (RFC3339)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.until, "until", "", "only records evaluated at or before this time (RFC3339)")
	evidenceQueryCmd.Flags().Float64Var(&evidenceFlags.minScore, "min-score", -1, "minimum score (inclusive)")
	evidenceQueryCmd.Flags().Float64Var(&evidenceFlags.maxScore, "max-score", -1, "maximum score (inclusive)")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "max results (default: evidence.query.default_limit)")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.order, "order", "desc", "sort order: desc, asc")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")
	evidenceQueryCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")

	// Flags for prune command
	evidencePruneCmd.Flags().IntVar(&pruneFlags.days, "days", -1, "retention period in days, 0 keeps records forever")
	evidencePruneCmd.Flags().Int64Var(&pruneFlags.maxRecords, "max-records", -1, "maximum records to keep, 0 is unlimited")
}

// openEvidence loads the configuration and opens the configured store.
func openEvidence() (*config.Config, evidence.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Evidence.Enabled {
		return nil, nil, cli.NewConfigError("evidence.enabled", "evidence recording is disabled")
	}
	store, err := storage.New(&cfg.Evidence, commandLogger())
	if err != nil {
		return nil, nil, cli.NewCommandError("evidence", fmt.Errorf("failed to open evidence store: %w", err))
	}
	return cfg, store, nil
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evidenceFlags.format, cli.FormatText, cli.FormatJSON, cli.FormatCSV)
	if err != nil {
		return err
	}
	q, err := buildQuery()
	if err != nil {
		return err
	}

	cfg, store, err := openEvidence()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := query.Validate(q, cfg.Evidence.Query.MaxLimit); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	query.ApplyDefaults(q, cfg.Evidence.Query.DefaultLimit)

	ctx := commandContext(cmd)
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("count failed: %w", err))
	}

	out := cmd.OutOrStdout()
	if evidenceFlags.output != "" {
		f, err := os.Create(evidenceFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == cli.FormatText {
		return (&evidenceListing{records: records, total: total, query: q}).WriteText(out)
	}
	exporter, err := export.New(string(format))
	if err != nil {
		return err
	}
	return exporter.Export(ctx, records, out)
}

// buildQuery turns the query flags into an evidence query. Negative score
// flags mean "unset".
func buildQuery() (*evidence.Query, error) {
	q := &evidence.Query{
		OperatorID: evidenceFlags.operator,
		Category:   fuzzy.Category(strings.ToLower(evidenceFlags.category)),
		Limit:      evidenceFlags.limit,
		Offset:     evidenceFlags.offset,
		SortOrder:  evidenceFlags.order,
	}

	for _, tf := range []struct {
		name  string
		value string
		dst   **time.Time
	}{
		{"since", evidenceFlags.since, &q.StartTime},
		{"until", evidenceFlags.until, &q.EndTime},
	} {
		if tf.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, tf.value)
		if err != nil {
			return nil, cli.NewConfigError(tf.name, fmt.Sprintf("invalid time %q (want RFC3339)", tf.value))
		}
		*tf.dst = &t
	}

	if evidenceFlags.minScore >= 0 {
		v := evidenceFlags.minScore
		q.MinScore = &v
	}
	if evidenceFlags.maxScore >= 0 {
		v := evidenceFlags.maxScore
		q.MaxScore = &v
	}
	return q, nil
}

type evidenceListing struct {
	records []*evidence.Record
	total   int64
	query   *evidence.Query
}

func (l *evidenceListing) WriteText(w io.Writer) error {
	p := &printer{w: w}

	if len(l.records) == 0 {
		p.printf("No evidence records found.\n")
		return p.err
	}

	p.printf("Showing %d of %d record(s)", len(l.records), l.total)
	if l.query.Offset > 0 {
		p.printf(" from offset %d", l.query.Offset)
	}
	p.printf("\n\n")

	p.printf("%-20s  %-12s  %10s  %10s  %6s  %-8s  %s\n",
		"EVALUATED", "OPERATOR", "OPERATIONS", "ERROR_RATE", "SCORE", "CATEGORY", "FIRED")
	for _, r := range l.records {
		operator := r.OperatorID
		if operator == "" {
			operator = "-"
		}
		p.printf("%-20s  %-12s  %10g  %10g  %6.2f  %-8s  %s\n",
			r.EvaluatedAt.UTC().Format(time.RFC3339),
			operator,
			r.Operations,
			r.ErrorRate,
			r.Score,
			r.Category,
			strings.Join(r.FiredRules(), ","),
		)
	}
	return p.err
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	cfg, store, err := openEvidence()
	if err != nil {
		return err
	}
	defer store.Close()

	rc := &retention.Config{
		RetentionDays: cfg.Evidence.Retention.Days,
		MaxRecords:    cfg.Evidence.Retention.MaxRecords,
	}
	if pruneFlags.days >= 0 {
		rc.RetentionDays = pruneFlags.days
	}
	if pruneFlags.maxRecords >= 0 {
		rc.MaxRecords = pruneFlags.maxRecords
	}

	pruner := retention.NewPruner(store, rc, retention.WithLogger(commandLogger()))
	n, err := pruner.Prune(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("prune failed: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d record(s) (retention: %s, max records: %s)\n",
		n, describeDays(rc.RetentionDays), describeMax(rc.MaxRecords))
	return nil
}

func describeDays(days int) string {
	if days == 0 {
		return "forever"
	}
	return fmt.Sprintf("%d days", days)
}

func describeMax(n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}
