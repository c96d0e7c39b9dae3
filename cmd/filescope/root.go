package main

import (
	"github.com/spf13/cobra"

	"filescope/internal/version"
)

var (
	// repoFlag overrides repository root discovery
	repoFlag string

	// formatFlag selects json or human output
	formatFlag string

	logFormatFlag string
	verbosity     int
	quietFlag     bool
)

var rootCmd = &cobra.Command{
	Use:   "filescope",
	Short: "filescope - change scoping for code review",
	Long: `filescope finds the changed files in a git working tree, scores them for
review relevance, and groups every selected file with its structurally
nearest neighbours using simhash fingerprints of symbols and imports.`,
	Version:      version.Info(),
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("filescope version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository root (default: the git top-level of the working directory)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatJSON),
		"Output format (json, human; config show also takes yaml, toml)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format (human, json); defaults to logging.format")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress all logs")
}
