package scope

import (
	"time"

	"filescope/internal/errors"
	"filescope/internal/repostate"
	"filescope/internal/scoring"
	"filescope/internal/similarity"
)

// Report is the output of one pipeline run.
type Report struct {
	RunID      string               `json:"runId"`
	StartedAt  time.Time            `json:"startedAt"`
	DurationMs int64                `json:"durationMs"`
	RepoRoot   string               `json:"repoRoot"`
	Provenance *repostate.RepoState `json:"provenance,omitempty"`

	Changed  []string                 `json:"changed"`
	Selected []string                 `json:"selected"`
	Scores   map[string]float64       `json:"scores"`
	Terms    map[string]scoring.Terms `json:"terms,omitempty"`
	Bypassed bool                     `json:"bypassed,omitempty"`

	PoolMode  string                           `json:"poolMode"`
	Pool      []string                         `json:"pool"`
	TopK      int                              `json:"topK"`
	Threshold int                              `json:"distanceThreshold"`
	Groups    map[string][]string              `json:"groups"`
	Related   map[string][]similarity.Neighbor `json:"related,omitempty"`

	Degradations  []errors.Degradation `json:"degradations"`
	DegradedCount int                  `json:"degradedCount"`
	Warnings      []string             `json:"warnings,omitempty"`
}

func (r *Report) addDegradations(ds ...errors.Degradation) {
	r.Degradations = append(r.Degradations, ds...)
	r.DegradedCount = countPaths(r.Degradations)
}

// countPaths counts distinct degraded files; one file can degrade in more
// than one stage.
func countPaths(ds []errors.Degradation) int {
	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		seen[d.Path] = true
	}
	return len(seen)
}
