package similarity

import (
	"context"
	"sort"
	"sync"

	"filescope/internal/errors"
	"filescope/internal/fingerprint"
)

// Neighbor is one ranked related file.
type Neighbor struct {
	Path     string `json:"path"`
	Distance int    `json:"distance"`
	Raw      int    `json:"raw"`
	Edge     Edge   `json:"-"`
}

// Grouper answers top-K related-file queries over a pool. The matrix is
// built on first use and reused by every later query.
type Grouper struct {
	builder *Builder
	entries []fingerprint.Entry

	once   sync.Once
	matrix *Matrix
	err    error
}

// NewGrouper creates a Grouper over an already fingerprinted pool.
func NewGrouper(builder *Builder, entries []fingerprint.Entry) *Grouper {
	return &Grouper{builder: builder, entries: entries}
}

// Matrix returns the pool's matrix, building it on the first call. A build
// error is sticky.
func (g *Grouper) Matrix(ctx context.Context) (*Matrix, error) {
	g.once.Do(func() {
		g.matrix, g.err = g.builder.Build(ctx, g.entries)
	})
	return g.matrix, g.err
}

// Related returns up to k pool files whose adjusted distance to center is
// below threshold, closest first. Ties keep pool order.
func (g *Grouper) Related(ctx context.Context, center string, k, threshold int) ([]string, error) {
	neighbors, err := g.RelatedEdges(ctx, center, k, threshold)
	if err != nil {
		return nil, err
	}
	related := make([]string, len(neighbors))
	for i, n := range neighbors {
		related[i] = n.Path
	}
	return related, nil
}

// RelatedEdges is Related with distances.
func (g *Grouper) RelatedEdges(ctx context.Context, center string, k, threshold int) ([]Neighbor, error) {
	m, err := g.Matrix(ctx)
	if err != nil {
		return nil, err
	}
	if !m.Contains(center) {
		return nil, errors.New(errors.FileNotInPool, "File is not part of the candidate pool", nil).
			WithDetails(map[string]interface{}{"path": center})
	}
	return rank(m, center, k, threshold), nil
}

// GroupAll runs Related for every pool file.
func (g *Grouper) GroupAll(ctx context.Context, k, threshold int) (map[string][]string, error) {
	m, err := g.Matrix(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]string, m.Len())
	for _, center := range m.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		neighbors := rank(m, center, k, threshold)
		related := make([]string, len(neighbors))
		for i, n := range neighbors {
			related[i] = n.Path
		}
		groups[center] = related
	}
	return groups, nil
}

func rank(m *Matrix, center string, k, threshold int) []Neighbor {
	neighbors := []Neighbor{}
	if k <= 0 {
		return neighbors
	}

	for _, other := range m.paths {
		if other == center {
			continue
		}
		e, _ := m.Edge(center, other)
		if e.Distance < threshold {
			neighbors = append(neighbors, Neighbor{Path: other, Distance: e.Distance, Raw: e.Raw, Edge: e})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}
