package git

import (
	"context"
	"strings"
)

// StatusEntry is one path reported by `git status --porcelain=v2`.
type StatusEntry struct {
	// Kind is the porcelain record type: "1" ordinary, "2" rename/copy,
	// "u" unmerged, "?" untracked, "!" ignored.
	Kind string `json:"kind"`

	// Code is the two-letter XY status ("M.", ".M", "A.", ...). Untracked
	// entries carry "??".
	Code string `json:"code"`

	Path string `json:"path"`

	// OrigPath is set for rename/copy records.
	OrigPath string `json:"origPath,omitempty"`
}

// Status returns working tree changes relative to HEAD, in git's order.
func (g *GitAdapter) Status(ctx context.Context) ([]StatusEntry, error) {
	g.logger.Debug("Getting working tree status")

	output, err := g.executeGitCommand(ctx, "status", "--porcelain=v2", "--untracked-files=all")
	if err != nil {
		return nil, err
	}

	entries := ParseStatusV2(output)
	g.logger.Debug("Parsed status entries", "count", len(entries))
	return entries, nil
}

// ParseStatusV2 parses porcelain v2 output. Header lines ("# ...") and
// malformed records are skipped.
func ParseStatusV2(output string) []StatusEntry {
	lines := splitLines(output)
	entries := make([]StatusEntry, 0, len(lines))

	for _, line := range lines {
		if len(line) < 2 {
			continue
		}

		switch line[0] {
		case '1':
			// 1 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <path>
			parts := strings.SplitN(line, " ", 9)
			if len(parts) != 9 {
				continue
			}
			entries = append(entries, StatusEntry{Kind: "1", Code: parts[1], Path: parts[8]})

		case '2':
			// 2 <XY> <sub> <mH> <mI> <mW> <hH> <hI> <X><score> <path><tab><origPath>
			parts := strings.SplitN(line, " ", 10)
			if len(parts) != 10 {
				continue
			}
			path, orig, _ := strings.Cut(parts[9], "\t")
			entries = append(entries, StatusEntry{Kind: "2", Code: parts[1], Path: path, OrigPath: orig})

		case 'u':
			// u <XY> <sub> <m1> <m2> <m3> <mW> <h1> <h2> <h3> <path>
			parts := strings.SplitN(line, " ", 11)
			if len(parts) != 11 {
				continue
			}
			entries = append(entries, StatusEntry{Kind: "u", Code: parts[1], Path: parts[10]})

		case '?':
			entries = append(entries, StatusEntry{Kind: "?", Code: "??", Path: strings.TrimPrefix(line, "? ")})

		case '!':
			entries = append(entries, StatusEntry{Kind: "!", Code: "!!", Path: strings.TrimPrefix(line, "! ")})
		}
	}

	return entries
}
