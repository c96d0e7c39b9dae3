package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"filescope/internal/errors"
)

// CommitSubjectsSince returns the subjects of commits touching filePath
// within the trailing window, most recent first.
func (g *GitAdapter) CommitSubjectsSince(ctx context.Context, filePath string, window time.Duration) ([]string, error) {
	if filePath == "" {
		return nil, errors.New(errors.InternalError, "File path is required", nil)
	}

	g.logger.Debug("Getting recent commits",
		"filePath", filePath,
		"window", window.String(),
	)

	lines, err := g.executeGitCommandLines(ctx,
		"log",
		sinceArg(window),
		"--pretty=format:%s",
		"--", filePath,
	)
	if err != nil {
		if isNoCommitsError(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// FileAuthors returns the author name of every commit touching filePath,
// most recent first. Callers deduplicate.
func (g *GitAdapter) FileAuthors(ctx context.Context, filePath string) ([]string, error) {
	if filePath == "" {
		return nil, errors.New(errors.InternalError, "File path is required", nil)
	}

	g.logger.Debug("Getting file authors", "filePath", filePath)

	lines, err := g.executeGitCommandLines(ctx, "log", "--format=%an", "--", filePath)
	if err != nil {
		if isNoCommitsError(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return lines, nil
}

// sinceArg renders a window as git's approxidate in whole days, or seconds
// for sub-day windows.
func sinceArg(window time.Duration) string {
	if window >= 24*time.Hour && window%(24*time.Hour) == 0 {
		return fmt.Sprintf("--since=%d.days", int(window/(24*time.Hour)))
	}
	return fmt.Sprintf("--since=%d.seconds", int(window.Seconds()))
}

// isNoCommitsError reports whether git refused a log query because the
// repository has no commits yet.
func isNoCommitsError(err error) bool {
	se, ok := err.(*errors.ScopeError)
	if !ok {
		return false
	}
	details, ok := se.Details.(map[string]interface{})
	if !ok {
		return false
	}
	stderr, _ := details["stderr"].(string)
	return strings.Contains(stderr, "does not have any commits")
}
