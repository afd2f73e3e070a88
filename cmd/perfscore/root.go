package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/telemetry/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "perfscore",
	Short: "perfscore - fuzzy operator performance scoring",
	Long: `perfscore rates operators on two crisp measurements, the number of
operations completed and the error rate, using Mamdani fuzzy inference.

Each assessment yields:
  - A performance score between 0 and 100
  - A category: High, Medium or Low Performance
  - The membership degree of every input term and the strength of every rule

Rule sets are declarative YAML files and can be reloaded without restarting
the server. Assessments served over HTTP are recorded as evidence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// error: 2 for configuration problems, 1 for everything else.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults plus PERFSCORE_* environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cli.UsageError(err)
	})
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError("failed to load config", err)
	}
	return cfg, nil
}

// commandLogger is the logger for one-shot commands. It stays quiet unless
// --verbose is set so that command output is not interleaved with logs.
func commandLogger() *slog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: "text",
		Writer: os.Stderr,
	})
	if err != nil {
		return slog.Default()
	}
	return logger
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
