// Package repostate fingerprints the working tree so a run report can say
// exactly which repository state it was computed from.
package repostate

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"filescope/internal/errors"
)

const (
	// EmptyHash represents an empty diff/list hash
	EmptyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

// RepoState represents the current state of the repository
type RepoState struct {
	RepoStateID         string `json:"repoStateId"`
	HeadCommit          string `json:"headCommit"`
	StagedDiffHash      string `json:"stagedDiffHash"`
	WorkingTreeDiffHash string `json:"workingTreeDiffHash"`
	UntrackedListHash   string `json:"untrackedListHash"`
	Dirty               bool   `json:"dirty"`
	ComputedAt          string `json:"computedAt"`
}

// ComputeRepoState computes the current repository state using git commands.
// A repository without commits gets an empty HeadCommit rather than an error.
func ComputeRepoState(ctx context.Context, repoRoot string) (*RepoState, error) {
	headCommit, err := runGit(ctx, repoRoot, "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		headCommit = ""
	}
	headCommit = strings.TrimSpace(headCommit)

	stagedDiff, err := runGit(ctx, repoRoot, "diff", "--cached")
	if err != nil {
		return nil, errors.New(errors.VCSFailed, "Failed to get staged diff", err)
	}

	diffArgs := []string{"diff"}
	if headCommit != "" {
		diffArgs = append(diffArgs, "HEAD")
	}
	workingDiff, err := runGit(ctx, repoRoot, diffArgs...)
	if err != nil {
		return nil, errors.New(errors.VCSFailed, "Failed to get working tree diff", err)
	}

	untracked, err := runGit(ctx, repoRoot, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, errors.New(errors.VCSFailed, "Failed to list untracked files", err)
	}

	stagedHash := hashString(stagedDiff)
	workingHash := hashString(workingDiff)
	untrackedHash := hashString(untracked)

	return &RepoState{
		RepoStateID:         computeRepoStateID(headCommit, stagedHash, workingHash, untrackedHash),
		HeadCommit:          headCommit,
		StagedDiffHash:      stagedHash,
		WorkingTreeDiffHash: workingHash,
		UntrackedListHash:   untrackedHash,
		Dirty:               stagedHash != EmptyHash || workingHash != EmptyHash || untrackedHash != EmptyHash,
		ComputedAt:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func runGit(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoRoot

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// hashString computes SHA256 hash of a string
func hashString(s string) string {
	if s == "" {
		return EmptyHash
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}

// computeRepoStateID computes the composite repoStateId from all components
func computeRepoStateID(headCommit, stagedHash, workingHash, untrackedHash string) string {
	composite := fmt.Sprintf("%s:%s:%s:%s", headCommit, stagedHash, workingHash, untrackedHash)
	return hashString(composite)
}

// IsGitRepository checks if the given path is inside a git work tree
func IsGitRepository(ctx context.Context, repoRoot string) bool {
	out, err := runGit(ctx, repoRoot, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// GetRepoRoot finds the git repository root from the given directory
func GetRepoRoot(ctx context.Context, startPath string) (string, error) {
	out, err := runGit(ctx, startPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.New(errors.BackendUnavailable, "Not a git repository", err).WithDetails(map[string]interface{}{
			"path": startPath,
		})
	}
	return strings.TrimSpace(out), nil
}
