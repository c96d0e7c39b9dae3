// Package similarity builds the pairwise adjusted-distance matrix over a
// fingerprinted pool and answers top-K related-file queries against it.
package similarity

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"filescope/internal/config"
	"filescope/internal/fingerprint"
	"filescope/internal/paths"
)

// Bonuses are the distance reductions applied to a pair.
type Bonuses struct {
	ImportReference int `json:"importReference"`
	SameFolder      int `json:"sameFolder"`
	SameFilename    int `json:"sameFilename"`
}

// Edge is the adjusted distance of one unordered pair. A precedes B in
// pool order.
type Edge struct {
	A string `json:"a"`
	B string `json:"b"`

	// Raw is the Hamming distance of the two fingerprints.
	Raw int `json:"raw"`

	// Distance is Raw minus every applied bonus. It may be negative.
	Distance int `json:"distance"`

	AReferencesB bool `json:"aReferencesB,omitempty"`
	BReferencesA bool `json:"bReferencesA,omitempty"`
	SameFolder   bool `json:"sameFolder,omitempty"`
	SameFilename bool `json:"sameFilename,omitempty"`
}

// Matrix stores one Edge per unordered pair of pool entries, indexed by
// pool position. It is immutable once built.
type Matrix struct {
	paths []string
	index map[string]int
	cells []Edge
}

// Len returns the number of pool entries.
func (m *Matrix) Len() int {
	return len(m.paths)
}

// Paths returns the pool in input order.
func (m *Matrix) Paths() []string {
	return append([]string(nil), m.paths...)
}

// Contains reports whether path is part of the pool.
func (m *Matrix) Contains(path string) bool {
	_, ok := m.index[path]
	return ok
}

// Edge returns the edge between a and b in either order.
func (m *Matrix) Edge(a, b string) (Edge, bool) {
	i, ok := m.index[a]
	if !ok {
		return Edge{}, false
	}
	j, ok := m.index[b]
	if !ok || i == j {
		return Edge{}, false
	}
	return m.cells[m.cell(i, j)], true
}

// Distance returns the adjusted distance between a and b in either order.
func (m *Matrix) Distance(a, b string) (int, bool) {
	e, ok := m.Edge(a, b)
	return e.Distance, ok
}

// cell maps an unordered index pair to its position in the packed upper
// triangle.
func (m *Matrix) cell(i, j int) int {
	if i > j {
		i, j = j, i
	}
	n := len(m.paths)
	return i*n - i*(i+1)/2 + (j - i - 1)
}

// Builder computes matrices with a fixed bonus policy.
type Builder struct {
	bonuses Bonuses
	workers int
	logger  *slog.Logger
}

// NewBuilder creates a Builder from the grouping section of cfg.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	workers := cfg.Grouping.Workers
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		bonuses: Bonuses{
			ImportReference: cfg.Grouping.Bonuses.ImportReference,
			SameFolder:      cfg.Grouping.Bonuses.SameFolder,
			SameFilename:    cfg.Grouping.Bonuses.SameFilename,
		},
		workers: workers,
		logger:  logger,
	}
}

type cellResult struct {
	pos  int
	edge Edge
}

// Build evaluates every unordered pair of entries. Rows are dealt
// round-robin to workers; each worker collects its cells locally and the
// results are merged after all workers finish. Duplicate paths keep their
// first occurrence.
func (b *Builder) Build(ctx context.Context, entries []fingerprint.Entry) (*Matrix, error) {
	pool := dedupe(entries)
	n := len(pool)

	m := &Matrix{
		paths: make([]string, n),
		index: make(map[string]int, n),
		cells: make([]Edge, n*(n-1)/2),
	}
	for i, e := range pool {
		m.paths[i] = e.Path
		m.index[e.Path] = i
	}

	stems := make([]string, n)
	parents := make([]string, n)
	for i, e := range pool {
		stems[i] = strings.ToLower(paths.Stem(e.Path))
		parents[i] = paths.ParentDir(e.Path)
	}

	workers := b.workers
	if workers > n {
		workers = n
	}
	results := make([][]cellResult, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var local []cellResult
			for i := w; i < n; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < n; j++ {
					edge := b.pair(pool[i], pool[j], stems[i], stems[j], parents[i], parents[j])
					local = append(local, cellResult{pos: m.cell(i, j), edge: edge})
				}
			}
			results[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, local := range results {
		for _, r := range local {
			m.cells[r.pos] = r.edge
		}
	}

	b.logger.Debug("Built similarity matrix",
		"files", n,
		"pairs", len(m.cells),
		"workers", workers,
	)
	return m, nil
}

func (b *Builder) pair(a, c fingerprint.Entry, stemA, stemC, parentA, parentC string) Edge {
	e := Edge{
		A:            a.Path,
		B:            c.Path,
		Raw:          fingerprint.Distance(a.Fingerprint, c.Fingerprint),
		AReferencesB: References(a.Signature.Imports, stemC),
		BReferencesA: References(c.Signature.Imports, stemA),
		SameFolder:   parentA == parentC,
		SameFilename: stemA == stemC,
	}

	e.Distance = e.Raw
	if e.AReferencesB || e.BReferencesA {
		e.Distance -= b.bonuses.ImportReference
	}
	if e.SameFolder {
		e.Distance -= b.bonuses.SameFolder
	}
	if e.SameFilename {
		e.Distance -= b.bonuses.SameFilename
	}
	return e
}

// References reports whether any import's last dotted or slash-separated
// component equals stem, ignoring case.
func References(imports []string, stem string) bool {
	stem = strings.ToLower(stem)
	if stem == "" {
		return false
	}
	for _, imp := range imports {
		if lastComponent(imp) == stem {
			return true
		}
	}
	return false
}

func lastComponent(module string) string {
	module = strings.ToLower(strings.TrimRight(module, "/."))
	if i := strings.LastIndexAny(module, "./"); i >= 0 {
		return module[i+1:]
	}
	return module
}

func dedupe(entries []fingerprint.Entry) []fingerprint.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]fingerprint.Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}
