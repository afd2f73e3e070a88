package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/assessment"
	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/evidence"
	"mercator-hq/perfscore/pkg/evidence/recorder"
	"mercator-hq/perfscore/pkg/evidence/retention"
	"mercator-hq/perfscore/pkg/evidence/storage"
	"mercator-hq/perfscore/pkg/server"
	"mercator-hq/perfscore/pkg/telemetry"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the perfscore API server",
	Long: `Start the perfscore HTTP API with the specified configuration.

The server scores operators over HTTP, records every assessment as evidence,
prunes old evidence on a schedule and, when ruleset.watch is set, reloads the
rule set whenever its file changes.

Examples:
  # Start with built-in defaults
  perfscore run

  # Start with custom config
  perfscore run --config /etc/perfscore/config.yaml

  # Override listen address
  perfscore run --listen 0.0.0.0:8080

  # Validate config and rule set without starting server
  perfscore run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and rule set without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError("invalid flag override", err)
	}

	if runFlags.dryRun {
		return dryRun(out, cfg)
	}

	ctx, stop := cli.SignalContext(commandContext(cmd))
	defer stop()

	tel, err := telemetry.New(&cfg.Telemetry, Version)
	if err != nil {
		return cli.WrapConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			tel.Logger.Warn("tracer shutdown failed", "error", err)
		}
	}()
	logger := tel.Logger
	slog.SetDefault(logger)

	printBanner(out, cfg)

	// Evidence recording (if enabled)
	var (
		store evidence.Storage
		rec   *recorder.Recorder
	)
	if cfg.Evidence.Enabled {
		store, err = storage.New(&cfg.Evidence, logger)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open evidence store: %w", err))
		}
		defer store.Close()

		rec = recorder.New(store, &recorder.Config{
			AsyncBuffer:  cfg.Evidence.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Evidence.Recorder.WriteTimeout,
		}, recorder.WithLogger(logger), recorder.WithMetrics(tel.Metrics))
		// Closed before the store so buffered records are flushed.
		defer rec.Close()

		pruner := newPruner(store, cfg, logger, tel)
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				logger.Debug("evidence retention scheduler started", "next_pruning", next)
			}
		}
		fmt.Fprintf(out, "✓ Evidence store initialized (%s)\n", cfg.Evidence.Backend)
	}

	svc, err := assessment.New(assessment.ConfigFrom(&cfg.RuleSet),
		assessment.WithLogger(logger),
		assessment.WithMetrics(tel.Metrics),
		assessment.WithTracer(tel.Tracer),
		assessment.WithRecorder(rec),
	)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load rule set: %w", err))
	}
	info, _ := svc.RuleSet()
	fmt.Fprintf(out, "✓ Rule set loaded: %s %s (%d rules)\n", info.Name, info.Version, info.Rules)

	tel.Health.RegisterCheck("ruleset", svc.Check)
	if store != nil {
		tel.Health.RegisterOptionalCheck("evidence", store.Ping)
	}

	if cfg.RuleSet.Watch && cfg.RuleSet.Path != "" {
		watcher, err := assessment.NewWatcher(assessment.WatcherConfig{
			Path:     cfg.RuleSet.Path,
			Debounce: cfg.RuleSet.WatchDebounce,
		}, svc, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("rule set watcher failed", "error", err)
			}
		}()
		fmt.Fprintf(out, "✓ Watching %s for changes\n", cfg.RuleSet.Path)
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(tel.Metrics),
		server.WithTracer(tel.Tracer),
		server.WithHealth(tel.Health),
		server.WithBuildInfo(server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate}),
	}
	if store != nil {
		opts = append(opts, server.WithEvidence(store, cfg.Evidence.Query))
	}
	srv := server.New(&cfg.Server, svc, opts...)

	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/health\n", scheme, cfg.Server.ListenAddress)
	if tel.Metrics != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, tel.Metrics.Path())
	}
	if cfg.Server.Auth.Enabled {
		fmt.Fprintf(out, "✓ API key auth enabled (%d key(s))\n", len(cfg.Server.Auth.Keys))
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		fmt.Fprintf(out, "✓ Rate limit: %g req/s per client, burst %d\n", rl.RequestsPerSecond, rl.Burst)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func newPruner(store evidence.Storage, cfg *config.Config, logger *slog.Logger, tel *telemetry.Telemetry) *retention.Pruner {
	return retention.NewPruner(store, &retention.Config{
		RetentionDays: cfg.Evidence.Retention.Days,
		MaxRecords:    cfg.Evidence.Retention.MaxRecords,
		PruneSchedule: cfg.Evidence.Retention.PruneSchedule,
	}, retention.WithLogger(logger), retention.WithMetrics(tel.Metrics))
}

// dryRun loads the rule set once so that both the configuration and the
// rule set are checked without opening storage or a listener.
func dryRun(out io.Writer, cfg *config.Config) error {
	svc, err := assessment.New(assessment.ConfigFrom(&cfg.RuleSet), assessment.WithLogger(commandLogger()))
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to load rule set: %w", err))
	}
	info, _ := svc.RuleSet()

	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "✓ Rule set valid: %s %s (%d rules, %s)\n", info.Name, info.Version, info.Rules, info.Source)
	return nil
}

func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "perfscore v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(out, "✓ Configuration loaded")

	slog.Debug("configuration",
		"listen_address", cfg.Server.ListenAddress,
		"ruleset", cfg.RuleSet.Path,
		"evidence_enabled", cfg.Evidence.Enabled,
		"evidence_backend", cfg.Evidence.Backend,
		"metrics_enabled", cfg.Telemetry.Metrics.Enabled,
		"tracing_enabled", cfg.Telemetry.Tracing.Enabled,
	)
}
