package git

import (
	"context"
	"strconv"
	"strings"
)

// DiffStats represents line statistics for a file in a diff
type DiffStats struct {
	FilePath  string `json:"filePath"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	IsBinary  bool   `json:"isBinary,omitempty"`
}

// Churn is additions plus deletions.
func (d DiffStats) Churn() int {
	return d.Additions + d.Deletions
}

// DiffNumstat returns per-file added/removed line counts for the given
// paths, summing unstaged (worktree vs index) and staged (index vs HEAD)
// changes so newly added files are counted too.
func (g *GitAdapter) DiffNumstat(ctx context.Context, paths []string) ([]DiffStats, error) {
	if len(paths) == 0 {
		return []DiffStats{}, nil
	}

	g.logger.Debug("Getting diff numstat", "paths", len(paths))

	unstagedArgs := append([]string{"diff", "--numstat", "--"}, paths...)
	unstaged, err := g.executeGitCommandLines(ctx, unstagedArgs...)
	if err != nil {
		return nil, err
	}

	stagedArgs := append([]string{"diff", "--cached", "--numstat", "--"}, paths...)
	staged, err := g.executeGitCommandLines(ctx, stagedArgs...)
	if err != nil {
		return nil, err
	}

	return mergeDiffStats(g.parseDiffStats(unstaged), g.parseDiffStats(staged)), nil
}

// parseDiffStats parses numstat output into DiffStats
// Format: "additions<TAB>deletions<TAB>filename"
func (g *GitAdapter) parseDiffStats(lines []string) []DiffStats {
	stats := make([]DiffStats, 0, len(lines))

	for _, line := range lines {
		stat, ok := ParseNumstatLine(line)
		if !ok {
			g.logger.Warn("Skipping malformed numstat line", "line", line)
			continue
		}
		stats = append(stats, stat)
	}

	return stats
}

// ParseNumstatLine parses one `git diff --numstat` line. Binary files
// ("-" counts) parse with zero additions and deletions.
func ParseNumstatLine(line string) (DiffStats, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 || parts[2] == "" {
		return DiffStats{}, false
	}

	if parts[0] == "-" || parts[1] == "-" {
		return DiffStats{FilePath: parts[2], IsBinary: true}, true
	}

	additions, err := strconv.Atoi(parts[0])
	if err != nil {
		return DiffStats{}, false
	}
	deletions, err := strconv.Atoi(parts[1])
	if err != nil {
		return DiffStats{}, false
	}

	return DiffStats{FilePath: parts[2], Additions: additions, Deletions: deletions}, true
}

// mergeDiffStats sums stats per path, keeping first-seen order.
func mergeDiffStats(lists ...[]DiffStats) []DiffStats {
	index := make(map[string]int)
	var merged []DiffStats

	for _, list := range lists {
		for _, s := range list {
			if i, ok := index[s.FilePath]; ok {
				merged[i].Additions += s.Additions
				merged[i].Deletions += s.Deletions
				merged[i].IsBinary = merged[i].IsBinary || s.IsBinary
				continue
			}
			index[s.FilePath] = len(merged)
			merged = append(merged, s)
		}
	}

	if merged == nil {
		return []DiffStats{}
	}
	return merged
}
