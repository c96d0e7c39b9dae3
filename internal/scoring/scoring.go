// Package scoring ranks changed files by structural density, churn share,
// recent commit activity and author diversity, and selects the ones above
// a threshold.
package scoring

import (
	"context"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"filescope/internal/backends/git"
	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/paths"
	"filescope/internal/symbols"
)

// Term weights.
const (
	ChurnWeight   = 1.0
	RecencyWeight = 0.1
	AuthorBonus   = 0.2
)

// densityScores maps the number of signals beating their median to a score.
var densityScores = [4]float64{0.0, 0.4, 0.7, 1.0}

// HistorySource is the version-control collaborator used for the churn,
// recency and author terms.
type HistorySource interface {
	DiffNumstat(ctx context.Context, paths []string) ([]git.DiffStats, error)
	CommitSubjectsSince(ctx context.Context, path string, window time.Duration) ([]string, error)
	FileAuthors(ctx context.Context, path string) ([]string, error)
}

// Terms is the per-file score breakdown.
type Terms struct {
	Counts        [3]int  `json:"counts"`
	AboveMedian   int     `json:"aboveMedian"`
	Density       float64 `json:"density"`
	Churn         float64 `json:"churn"`
	RecentCommits int     `json:"recentCommits"`
	Recency       float64 `json:"recency"`
	Authors       int     `json:"authors"`
	AuthorBonus   float64 `json:"authorBonus"`
}

// Result is the outcome of scoring one batch.
type Result struct {
	// Selected holds files scoring at or above the threshold, in input order.
	Selected []string             `json:"selected"`
	Scores   map[string]float64   `json:"scores"`
	Terms    map[string]Terms     `json:"terms,omitempty"`
	Bypassed bool                 `json:"bypassed,omitempty"`
	Degraded []errors.Degradation `json:"degraded,omitempty"`

	// Warnings holds one entry per history signal that failed.
	Warnings []string `json:"warnings,omitempty"`
}

// Scorer computes relevance scores for a batch of changed files.
type Scorer struct {
	repoRoot   string
	history    HistorySource
	threshold  float64
	comparison string
	bypassMax  int
	window     time.Duration
	logger     *slog.Logger
}

// NewScorer creates a Scorer from the scoring section of cfg.
func NewScorer(cfg *config.Config, history HistorySource, logger *slog.Logger) *Scorer {
	return &Scorer{
		repoRoot:   cfg.RepoRoot,
		history:    history,
		threshold:  cfg.Scoring.Threshold,
		comparison: cfg.Scoring.MedianComparison,
		bypassMax:  cfg.Scoring.BypassMax,
		window:     time.Duration(cfg.Scoring.RecencyDays) * 24 * time.Hour,
		logger:     logger,
	}
}

// Score scores files (repo-relative paths). History failures degrade the
// affected term to zero and never fail the batch; only context
// cancellation returns an error.
func (s *Scorer) Score(ctx context.Context, files []string) (*Result, error) {
	res := &Result{
		Selected: []string{},
		Scores:   make(map[string]float64, len(files)),
		Terms:    make(map[string]Terms, len(files)),
	}
	if len(files) == 0 {
		return res, nil
	}

	if len(files) <= s.bypassMax {
		res.Bypassed = true
		for _, f := range files {
			res.Scores[f] = 1.0
			res.Selected = append(res.Selected, f)
		}
		s.logger.Debug("Scoring bypassed for small batch", "files", len(files))
		return res, nil
	}

	terms := make([]Terms, len(files))

	s.densityTerms(files, terms, res)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.churnTerms(ctx, files, terms, res)
	if err := s.historyTerms(ctx, files, terms, res); err != nil {
		return nil, err
	}

	for i, f := range files {
		t := terms[i]
		score := round4(t.Density + t.Churn + t.Recency + t.AuthorBonus)
		res.Scores[f] = score
		res.Terms[f] = t
		if score >= s.threshold {
			res.Selected = append(res.Selected, f)
		}
	}

	s.logger.Debug("Scored batch",
		"files", len(files),
		"selected", len(res.Selected),
		"threshold", s.threshold,
	)
	return res, nil
}

// densityTerms counts the three structural markers per file and compares
// each count with the batch median. Unreadable files keep zero counts but
// do not take part in the medians.
func (s *Scorer) densityTerms(files []string, terms []Terms, res *Result) {
	var columns [3][]float64
	for i, f := range files {
		source, err := os.ReadFile(paths.JoinRepoPath(s.repoRoot, f))
		if err != nil {
			res.Degraded = append(res.Degraded, errors.NewDegradation(f, errors.StageScore,
				errors.New(errors.IOFailed, "Failed to read file", err)))
			s.logger.Debug("Counting markers failed", "path", f, "error", err.Error())
			continue
		}
		terms[i].Counts = CountMarkers(string(source), paths.Ext(f))
		for k := range columns {
			columns[k] = append(columns[k], float64(terms[i].Counts[k]))
		}
	}

	var medians [3]float64
	for k := range columns {
		medians[k] = Median(columns[k])
	}

	for i := range terms {
		above := 0
		for k, c := range terms[i].Counts {
			if s.beats(float64(c), medians[k]) {
				above++
			}
		}
		terms[i].AboveMedian = above
		terms[i].Density = densityScores[above]
	}
}

func (s *Scorer) beats(v, median float64) bool {
	if s.comparison == config.MedianGreaterEqual {
		return v >= median
	}
	return v > median
}

func (s *Scorer) churnTerms(ctx context.Context, files []string, terms []Terms, res *Result) {
	stats, err := s.history.DiffNumstat(ctx, files)
	if err != nil {
		s.warn(res, "churn", err)
		return
	}

	churn := make(map[string]int, len(stats))
	total := 0
	for _, st := range stats {
		churn[paths.NormalizePath(st.FilePath)] += st.Churn()
		total += st.Churn()
	}
	if total == 0 {
		return
	}

	for i, f := range files {
		terms[i].Churn = float64(churn[f]) / float64(total) * ChurnWeight
	}
}

func (s *Scorer) historyTerms(ctx context.Context, files []string, terms []Terms, res *Result) error {
	recencyFailed, authorsFailed := false, false
	authorTotal := 0

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		subjects, err := s.history.CommitSubjectsSince(ctx, f, s.window)
		if err != nil {
			if !recencyFailed {
				s.warn(res, "recency", err)
				recencyFailed = true
			}
		} else {
			terms[i].RecentCommits = len(subjects)
			terms[i].Recency = float64(len(subjects)) * RecencyWeight
		}

		authors, err := s.history.FileAuthors(ctx, f)
		if err != nil {
			if !authorsFailed {
				s.warn(res, "authors", err)
				authorsFailed = true
			}
		} else {
			terms[i].Authors = countDistinct(authors)
		}
		authorTotal += terms[i].Authors
	}

	mean := float64(authorTotal) / float64(len(files))
	for i := range terms {
		if float64(terms[i].Authors) > mean {
			terms[i].AuthorBonus = AuthorBonus
		}
	}
	return nil
}

func (s *Scorer) warn(res *Result, signal string, err error) {
	s.logger.Warn("History signal unavailable, scoring without it",
		"signal", signal,
		"error", err.Error(),
	)
	res.Warnings = append(res.Warnings, signal+": "+err.Error())
}

// Markers returns the three literal density markers for a file extension:
// function declarations, type declarations and imports.
func Markers(ext string) [3]string {
	lang, _ := symbols.LanguageFromExtension(ext)
	switch lang {
	case symbols.LangGo:
		return [3]string{"func ", "type ", "import "}
	case symbols.LangJavaScript, symbols.LangTypeScript, symbols.LangTSX:
		return [3]string{"function ", "class ", "import "}
	default:
		return [3]string{"def ", "class ", "from "}
	}
}

// CountMarkers counts non-overlapping occurrences of each density marker.
func CountMarkers(source, ext string) [3]int {
	var counts [3]int
	for k, m := range Markers(ext) {
		counts[k] = strings.Count(source, m)
	}
	return counts
}

// Median returns the median of values, averaging the two middle values of
// an even-length input. An empty input has median 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func countDistinct(items []string) int {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return len(set)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
