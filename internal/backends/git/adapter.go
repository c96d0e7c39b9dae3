// Package git is the version-control collaborator: it shells out to the git
// CLI for status, diff-stat and log queries.
package git

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/repostate"
)

const (
	// BackendID is the unique identifier for the Git backend
	BackendID = "git"

	// DefaultQueryTimeout is the default timeout for git operations (5000ms)
	DefaultQueryTimeout = 5000 * time.Millisecond
)

// GitAdapter runs git queries against a single repository
type GitAdapter struct {
	repoRoot     string
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewGitAdapter creates a new Git backend adapter
func NewGitAdapter(cfg *config.Config, logger *slog.Logger) (*GitAdapter, error) {
	if logger == nil {
		return nil, errors.New(errors.InternalError, "Logger is required for GitAdapter", nil)
	}

	timeout := DefaultQueryTimeout
	if cfg.Backends.Git.TimeoutMs > 0 {
		timeout = time.Duration(cfg.Backends.Git.TimeoutMs) * time.Millisecond
	}

	adapter := &GitAdapter{
		repoRoot:     cfg.RepoRoot,
		queryTimeout: timeout,
		logger:       logger,
	}

	if !adapter.IsAvailable(context.Background()) {
		return nil, errors.New(errors.BackendUnavailable, "Git is not available in this repository", nil).
			WithDetails(map[string]interface{}{"repoRoot": cfg.RepoRoot})
	}

	logger.Debug("Git adapter initialized",
		"repoRoot", cfg.RepoRoot,
		"timeout", timeout.String(),
	)

	return adapter, nil
}

// ID returns the backend identifier
func (g *GitAdapter) ID() string {
	return BackendID
}

// RepoRoot returns the repository root the adapter runs in
func (g *GitAdapter) RepoRoot() string {
	return g.repoRoot
}

// IsAvailable checks if git is installed and repoRoot is a work tree
func (g *GitAdapter) IsAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("git"); err != nil {
		return false
	}
	return repostate.IsGitRepository(ctx, g.repoRoot)
}

// GetRepoState returns the current repository state for run provenance
func (g *GitAdapter) GetRepoState(ctx context.Context) (*repostate.RepoState, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	state, err := repostate.ComputeRepoState(ctx, g.repoRoot)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Repository state computed",
		"repoStateId", state.RepoStateID,
		"headCommit", state.HeadCommit,
		"dirty", state.Dirty,
	)
	return state, nil
}

// executeGitCommand runs a git command with timeout and returns the raw output
func (g *GitAdapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command",
		"args", args,
		"timeout", g.queryTimeout.String(),
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, "Git command timed out", err).
				WithDetails(map[string]interface{}{"args": args})
		}

		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return "", errors.New(errors.VCSFailed, "Git command failed", err).
				WithDetails(map[string]interface{}{
					"args":   args,
					"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				})
		}

		return "", errors.New(errors.BackendUnavailable, "Failed to execute git command", err)
	}

	return string(output), nil
}

// executeGitCommandLines runs a git command and returns non-empty output lines
func (g *GitAdapter) executeGitCommandLines(ctx context.Context, args ...string) ([]string, error) {
	output, err := g.executeGitCommand(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

func splitLines(output string) []string {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return []string{}
	}

	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
