package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filescope/internal/config"
	"filescope/internal/errors"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage filescope configuration",
	Long:  "View and manage filescope configuration stored in .filescope/config.{json,yaml,toml}",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration after defaults, the config file,
the legacy config/user_config.yml and FILESCOPE_* environment overrides.

Examples:
  filescope config show                  # JSON
  filescope config show --format yaml    # YAML
  filescope config show --format toml    # TOML`,
	Args: cobra.NoArgs,
	Run:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .filescope/config.json",
	Args:  cobra.NoArgs,
	Run:   runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config.json")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	repoRoot := mustGetRepoRoot(ctx)
	result, err := config.LoadConfig(repoRoot)
	if err != nil {
		exitWithError(errors.New(errors.ConfigInvalid, "Cannot load configuration", err))
	}

	out, err := result.Config.Marshal(configRendering(formatFlag))
	if err != nil {
		exitWithError(errors.New(errors.ConfigInvalid, "Cannot render configuration", err))
	}

	fmt.Fprintf(os.Stderr, "# source: %s\n", result.Source)
	fmt.Println(string(out))

	if err := result.Config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "# warning: %v\n", err)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) {
	ctx, cancel := newContext()
	defer cancel()

	repoRoot := mustGetRepoRoot(ctx)
	path := filepath.Join(repoRoot, config.ConfigDir, "config.json")
	if _, err := os.Stat(path); err == nil && !configForce {
		exitWithError(errors.New(errors.ConfigInvalid, path+" already exists (use --force to overwrite)", nil))
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(errors.New(errors.IOFailed, "Cannot write configuration", err))
	}

	fmt.Printf("Wrote %s\n", path)
}

// configRendering maps --format to a config encoding. Human output is YAML.
func configRendering(format string) string {
	if format == string(FormatHuman) {
		return "yaml"
	}
	return format
}
