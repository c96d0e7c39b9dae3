package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/paths"
	"filescope/internal/repostate"
	"filescope/internal/scope"
	"filescope/internal/slogutil"
)

// getRepoRoot returns --repo when set, otherwise the git top-level of the
// working directory. Outside a repository the working directory is used so
// that grouping still works.
func getRepoRoot(ctx context.Context) (string, error) {
	if repoFlag != "" {
		return filepath.Abs(repoFlag)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if root, err := repostate.GetRepoRoot(ctx, cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot(ctx context.Context) string {
	repoRoot, err := getRepoRoot(ctx)
	if err != nil {
		exitWithError(errors.New(errors.IOFailed, "Cannot resolve repository root", err))
	}
	return repoRoot
}

// newContext creates a context cancelled on interrupt.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// mustLoadConfig loads the repository configuration or exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	result, err := config.LoadConfig(repoRoot)
	if err != nil {
		exitWithError(errors.New(errors.ConfigInvalid, "Cannot load configuration", err))
	}
	return result.Config
}

// newLogger creates a stderr logger. -v and --quiet take precedence over
// logging.level; --log-format over logging.format.
func newLogger(cfg *config.Config) *slog.Logger {
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}

	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quietFlag {
		level = slogutil.LevelFromVerbosity(verbosity, quietFlag)
	}
	return slogutil.New(os.Stderr, format, level)
}

// mustGetEngine creates the pipeline engine or exits on error.
func mustGetEngine(cfg *config.Config, logger *slog.Logger) *scope.Engine {
	engine, err := scope.NewEngine(cfg, logger)
	if err != nil {
		exitWithError(err)
	}
	return engine
}

// setup resolves the repository, configuration, logger and engine shared by
// the pipeline commands.
func setup(ctx context.Context) (*config.Config, *slog.Logger, *scope.Engine) {
	repoRoot := mustGetRepoRoot(ctx)
	cfg := mustLoadConfig(repoRoot)
	logger := newLogger(cfg)
	return cfg, logger, mustGetEngine(cfg, logger)
}

// repoRelative converts command-line paths to canonical repo-relative
// paths. Relative arguments are resolved against the working directory,
// then against the repository root.
func repoRelative(repoRoot string, args []string) ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(args))
	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(arg) {
			abs = filepath.Join(cwd, arg)
			if !paths.IsWithinRepo(abs, repoRoot) {
				abs = filepath.Join(repoRoot, arg)
			}
		}
		if !paths.IsWithinRepo(abs, repoRoot) {
			return nil, errors.New(errors.FileNotInPool, arg+" is outside the repository", nil).WithDetails(map[string]interface{}{
				"repoRoot": repoRoot,
			})
		}

		rel, err := paths.CanonicalizePath(abs, repoRoot)
		if err != nil {
			return nil, errors.New(errors.IOFailed, "Cannot resolve "+arg, err)
		}
		out = append(out, rel)
	}
	return out, nil
}

// mustRepoRelative is repoRelative that exits on error.
func mustRepoRelative(repoRoot string, args []string) []string {
	rel, err := repoRelative(repoRoot, args)
	if err != nil {
		exitWithError(err)
	}
	return rel
}

// printResponse writes resp in the selected output format or exits.
func printResponse(resp interface{}) {
	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

// exitWithError prints err and exits with status 1. In JSON mode the
// ScopeError, suggested fixes included, goes to stdout.
func exitWithError(err error) {
	format := OutputFormat(formatFlag)
	if format == FormatJSON {
		fmt.Println(formatError(err, format))
	} else {
		fmt.Fprintln(os.Stderr, formatError(err, format))
	}
	os.Exit(1)
}
