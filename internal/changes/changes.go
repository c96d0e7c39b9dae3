// Package changes finds the files a developer is currently working on and
// enumerates candidate files across the repository.
package changes

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filescope/internal/backends/git"
	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/paths"
)

// ChangeStatus classifies a status entry.
type ChangeStatus int

const (
	Other ChangeStatus = iota
	Added
	Modified
)

func (s ChangeStatus) String() string {
	switch s {
	case Added:
		return "added"
	case Modified:
		return "modified"
	default:
		return "other"
	}
}

// FileRecord is one changed file that passed every filter.
type FileRecord struct {
	Path   string       `json:"path"`
	Ext    string       `json:"ext"`
	Status ChangeStatus `json:"-"`
	Exists bool         `json:"exists"`
}

// StatusSource reports working tree status entries in git's order.
type StatusSource interface {
	Status(ctx context.Context) ([]git.StatusEntry, error)
}

// Classify maps a porcelain entry to a ChangeStatus. Any XY code holding an
// A is Added, otherwise any M is Modified. Untracked entries count as Added
// only when includeUntracked is set.
func Classify(e git.StatusEntry, includeUntracked bool) ChangeStatus {
	switch e.Kind {
	case "?":
		if includeUntracked {
			return Added
		}
		return Other
	case "1", "2":
		switch {
		case strings.Contains(e.Code, "A"):
			return Added
		case strings.Contains(e.Code, "M"):
			return Modified
		}
	}
	return Other
}

// Detector applies the admission policy to status entries.
type Detector struct {
	repoRoot         string
	source           StatusSource
	extensions       map[string]bool
	poolExtensions   map[string]bool
	filter           *paths.Filter
	includeUntracked bool
	logger           *slog.Logger
}

// NewDetector builds a Detector from cfg. Invalid exclude globs are a
// CONFIG_INVALID error.
func NewDetector(cfg *config.Config, source StatusSource, logger *slog.Logger) (*Detector, error) {
	filter, invalid := paths.NewFilter(cfg.ChangeDetection.ReservedDirs, cfg.ChangeDetection.ExcludeGlobs)
	if len(invalid) > 0 {
		return nil, errors.New(errors.ConfigInvalid, "Invalid exclude glob", nil).
			WithDetails(map[string]interface{}{"globs": invalid})
	}

	return &Detector{
		repoRoot:         cfg.RepoRoot,
		source:           source,
		extensions:       cfg.ExtensionSet(),
		poolExtensions:   cfg.GroupingExtensionSet(),
		filter:           filter,
		includeUntracked: cfg.ChangeDetection.IncludeUntracked,
		logger:           logger,
	}, nil
}

// DetectChanged returns the repo-relative paths of added or modified files
// that pass every filter, in status order. When status fails it returns an
// empty slice and a VCS_FAILED error, or BACKEND_UNAVAILABLE when git itself
// is missing.
func (d *Detector) DetectChanged(ctx context.Context) ([]string, error) {
	records, err := d.Records(ctx)
	files := make([]string, 0, len(records))
	for _, r := range records {
		files = append(files, r.Path)
	}
	return files, err
}

// Records is DetectChanged with per-file detail.
func (d *Detector) Records(ctx context.Context) ([]FileRecord, error) {
	entries, err := d.source.Status(ctx)
	if err != nil {
		d.logger.Debug("Status query failed", "error", err.Error())
		switch errors.CodeOf(err) {
		case errors.VCSFailed, errors.Timeout, errors.BackendUnavailable:
		default:
			err = errors.New(errors.VCSFailed, "Failed to read working tree status", err)
		}
		return []FileRecord{}, err
	}

	records := make([]FileRecord, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		status := Classify(e, d.includeUntracked)
		if status == Other {
			continue
		}

		path := paths.NormalizePath(e.Path)
		if seen[path] || !d.admit(path, d.extensions) {
			continue
		}

		if _, err := os.Stat(paths.JoinRepoPath(d.repoRoot, path)); err != nil {
			d.logger.Debug("Skipping changed file missing on disk", "path", path)
			continue
		}

		seen[path] = true
		records = append(records, FileRecord{
			Path:   path,
			Ext:    paths.Ext(path),
			Status: status,
			Exists: true,
		})
	}

	d.logger.Debug("Detected changed files",
		"statusEntries", len(entries),
		"admitted", len(records),
	)
	return records, nil
}

// EnumerateAll walks root and returns every file whose extension is in the
// grouping allow-list, skipping hidden, reserved and excluded paths. Paths
// are repo-relative and in lexical order.
func (d *Detector) EnumerateAll(root string) ([]string, error) {
	if root == "" {
		root = d.repoRoot
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			d.logger.Debug("Skipping unreadable path", "path", path, "error", err.Error())
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			name := entry.Name()
			if d.filter.ExcludedDir(name) || d.filter.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.admit(rel, d.poolExtensions) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.IOFailed, "Failed to walk repository", err).
			WithDetails(map[string]interface{}{"root": root})
	}

	sort.Strings(files)
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// admit applies the extension, hidden-segment, reserved-dir and glob filters.
func (d *Detector) admit(path string, extensions map[string]bool) bool {
	return extensions[paths.Ext(path)] && !d.filter.Excluded(path)
}
