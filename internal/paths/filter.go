package paths

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides whether a repo-relative path is excluded from scanning.
// A path is excluded when any segment is hidden, any segment is a reserved
// directory name, or the whole path matches one of the glob patterns.
type Filter struct {
	reserved map[string]bool
	globs    []string
}

// NewFilter creates a Filter. Invalid glob patterns are dropped and returned
// so callers can report them.
func NewFilter(reservedDirs []string, globs []string) (*Filter, []string) {
	f := &Filter{
		reserved: make(map[string]bool, len(reservedDirs)),
	}
	for _, d := range reservedDirs {
		f.reserved[d] = true
	}

	var invalid []string
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			invalid = append(invalid, g)
			continue
		}
		f.globs = append(f.globs, g)
	}
	return f, invalid
}

// Excluded reports whether canonicalPath should be skipped.
func (f *Filter) Excluded(canonicalPath string) bool {
	for _, seg := range Segments(canonicalPath) {
		if IsHiddenSegment(seg) || f.reserved[seg] {
			return true
		}
	}
	return f.matchesGlob(canonicalPath)
}

// ExcludedDir reports whether a directory should be pruned during a walk.
func (f *Filter) ExcludedDir(name string) bool {
	return IsHiddenSegment(name) || f.reserved[name]
}

func (f *Filter) matchesGlob(canonicalPath string) bool {
	path := NormalizePath(canonicalPath)
	for _, g := range f.globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}
