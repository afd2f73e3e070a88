package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"mercator-hq/perfscore/pkg/cli"
	"mercator-hq/perfscore/pkg/fuzzy/ruleset"
)

// Set with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the build version, commit and date, plus the version of the built-in rule set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(versionFormat, cli.FormatText, cli.FormatJSON)
		if err != nil {
			return err
		}
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), currentBuild())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "output format: text, json")
}

type buildInfo struct {
	Version        string `json:"version"`
	Commit         string `json:"commit"`
	BuildDate      string `json:"build_date"`
	GoVersion      string `json:"go_version"`
	Platform       string `json:"platform"`
	DefaultRuleSet string `json:"default_ruleset,omitempty"`
}

func currentBuild() buildInfo {
	b := buildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if rs, err := ruleset.Default(); err == nil {
		b.DefaultRuleSet = rs.Name + " " + rs.Version
	}
	return b
}

func (b buildInfo) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "perfscore %s\nGit Commit: %s\nBuild Date: %s\nGo Version: %s\nOS/Arch: %s\n",
		b.Version, b.Commit, b.BuildDate, b.GoVersion, b.Platform)
	if err == nil && b.DefaultRuleSet != "" {
		_, err = fmt.Fprintf(w, "Default Rule Set: %s\n", b.DefaultRuleSet)
	}
	return err
}
