// Package scope wires change detection, scoring, fingerprinting and
// grouping into a single run.
package scope

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"filescope/internal/backends/git"
	"filescope/internal/changes"
	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/fingerprint"
	"filescope/internal/paths"
	"filescope/internal/repostate"
	"filescope/internal/scoring"
	"filescope/internal/similarity"
	"filescope/internal/symbols"
)

// VCS is the version-control collaborator of a full run.
type VCS interface {
	changes.StatusSource
	scoring.HistorySource
	GetRepoState(ctx context.Context) (*repostate.RepoState, error)
}

// Options select the pool and grouping parameters of a run.
type Options struct {
	// Pool is config.PoolChanged, config.PoolSelected or config.PoolRepo.
	Pool string

	// Files is an explicit pool for Group. It overrides Pool.
	Files []string

	// Center restricts Group to a single center file.
	Center string

	TopK      int
	Threshold int
}

// DefaultOptions returns Options from the grouping section of cfg.
func DefaultOptions(cfg *config.Config) Options {
	return Options{
		Pool:      cfg.Grouping.Pool,
		TopK:      cfg.Grouping.TopK,
		Threshold: cfg.Grouping.DistanceThreshold,
	}
}

// Engine runs the pipeline.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	vcs    VCS
	vcsErr error

	detector      *changes.Detector
	scorer        *scoring.Scorer
	fingerprinter *fingerprint.Fingerprinter
	builder       *similarity.Builder
}

// NewEngine creates an Engine backed by the git CLI and the tree-sitter
// extractor. Git being unavailable is not an error here: Group still works,
// while Run, Changed and Score report BACKEND_UNAVAILABLE.
func NewEngine(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if !symbols.IsAvailable() {
		logger.Warn("Tree-sitter parser unavailable (built without cgo); every pool file will degrade to the empty fingerprint")
	}

	adapter, err := git.NewGitAdapter(cfg, logger)
	if err != nil {
		logger.Debug("Git backend unavailable", "error", err.Error())
		return newEngine(cfg, nil, err, symbols.NewExtractor(), logger)
	}
	return newEngine(cfg, adapter, nil, symbols.NewExtractor(), logger)
}

// NewEngineWith creates an Engine with explicit collaborators.
func NewEngineWith(cfg *config.Config, vcs VCS, parser fingerprint.Parser, logger *slog.Logger) (*Engine, error) {
	return newEngine(cfg, vcs, nil, parser, logger)
}

func newEngine(cfg *config.Config, vcs VCS, vcsErr error, parser fingerprint.Parser, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "Invalid configuration", err)
	}

	var status changes.StatusSource = unavailableStatus{}
	if vcs != nil {
		status = vcs
	} else if vcsErr == nil {
		vcsErr = errors.New(errors.BackendUnavailable, "No version control backend configured", nil)
	}

	detector, err := changes.NewDetector(cfg, status, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:           cfg,
		logger:        logger,
		vcs:           vcs,
		vcsErr:        vcsErr,
		detector:      detector,
		fingerprinter: fingerprint.New(cfg.RepoRoot, parser, cfg.Grouping.Stopwords, cfg.Grouping.Workers, logger),
		builder:       similarity.NewBuilder(cfg, logger),
	}
	if vcs != nil {
		e.scorer = scoring.NewScorer(cfg, vcs, logger)
	}
	return e, nil
}

// ready reports whether change detection and scoring may run. Both need an
// allow-list the user chose and a version control backend.
func (e *Engine) ready() error {
	if e.cfg.Defaulted {
		return errors.New(errors.ConfigInvalid,
			"No configuration found in "+config.ConfigDir+"/ or "+config.LegacyConfigPath+"; the extension allow-list must be set explicitly", nil)
	}
	if e.vcs == nil {
		return e.vcsErr
	}
	return nil
}

// Changed runs change detection only.
func (e *Engine) Changed(ctx context.Context) ([]changes.FileRecord, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.detector.Records(ctx)
}

// Score runs relevance scoring over files.
func (e *Engine) Score(ctx context.Context, files []string) (*scoring.Result, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.scorer.Score(ctx, normalize(files))
}

// Run executes the full pipeline: detect, score, fingerprint the pool and
// group every selected file against it.
func (e *Engine) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	report := e.newReport(opts)

	changed, err := e.detector.DetectChanged(ctx)
	if err != nil {
		if !errors.IsDegradable(err) {
			return nil, err
		}
		// Without a status the run has no changed files; the pool and
		// provenance are still reported.
		e.logger.Warn("Change detection failed, continuing without changed files", "error", err.Error())
		report.Warnings = append(report.Warnings, "status: "+err.Error())
		changed = []string{}
	}
	report.Changed = changed

	scored, err := e.scorer.Score(ctx, changed)
	if err != nil {
		return nil, err
	}
	report.Selected = scored.Selected
	report.Scores = scored.Scores
	report.Terms = scored.Terms
	report.Bypassed = scored.Bypassed
	report.Warnings = append(report.Warnings, scored.Warnings...)
	report.addDegradations(scored.Degraded...)

	pool, err := e.pool(opts.Pool, changed, scored.Selected)
	if err != nil {
		return nil, err
	}

	if err := e.group(ctx, report, pool, scored.Selected, opts); err != nil {
		return nil, err
	}

	e.attachProvenance(ctx, report)
	return e.finish(report), nil
}

// Group runs fingerprinting and grouping without change detection. The pool
// is opts.Files, or the whole repository when none are given. With
// opts.Center set only that file is grouped.
func (e *Engine) Group(ctx context.Context, opts Options) (*Report, error) {
	report := e.newReport(opts)

	var pool []string
	if len(opts.Files) > 0 {
		report.PoolMode = "files"
		pool = e.poolFilter(normalize(opts.Files))
	} else {
		report.PoolMode = config.PoolRepo
		all, err := e.detector.EnumerateAll(e.cfg.RepoRoot)
		if err != nil {
			return nil, err
		}
		pool = all
	}

	var centers []string
	if opts.Center != "" {
		centers = []string{paths.NormalizePath(opts.Center)}
	} else {
		centers = pool
	}

	if err := e.group(ctx, report, pool, centers, opts); err != nil {
		return nil, err
	}

	if e.vcs != nil {
		e.attachProvenance(ctx, report)
	}
	return e.finish(report), nil
}

func (e *Engine) newReport(opts Options) *Report {
	return &Report{
		RunID:        uuid.New().String(),
		StartedAt:    time.Now(),
		RepoRoot:     e.cfg.RepoRoot,
		Changed:      []string{},
		Selected:     []string{},
		Scores:       map[string]float64{},
		PoolMode:     opts.Pool,
		Pool:         []string{},
		TopK:         opts.TopK,
		Threshold:    opts.Threshold,
		Groups:       map[string][]string{},
		Related:      map[string][]similarity.Neighbor{},
		Degradations: []errors.Degradation{},
	}
}

func (e *Engine) finish(r *Report) *Report {
	r.DurationMs = time.Since(r.StartedAt).Milliseconds()
	e.logger.Info("Run complete",
		"runId", r.RunID,
		"changed", len(r.Changed),
		"selected", len(r.Selected),
		"pool", len(r.Pool),
		"degraded", r.DegradedCount,
		"durationMs", r.DurationMs,
	)
	return r
}

// pool resolves the candidate pool for a full run, restricted to the
// fingerprinted extensions.
func (e *Engine) pool(mode string, changed, selected []string) ([]string, error) {
	switch mode {
	case config.PoolSelected:
		return e.poolFilter(selected), nil
	case config.PoolRepo:
		return e.detector.EnumerateAll(e.cfg.RepoRoot)
	default:
		return e.poolFilter(changed), nil
	}
}

func (e *Engine) poolFilter(files []string) []string {
	allowed := e.cfg.GroupingExtensionSet()
	out := make([]string, 0, len(files))
	for _, f := range files {
		if allowed[paths.Ext(f)] {
			out = append(out, f)
		}
	}
	return out
}

// group fingerprints pool plus any centers missing from it, then ranks
// each center's neighbours.
func (e *Engine) group(ctx context.Context, report *Report, pool, centers []string, opts Options) error {
	inPool := make(map[string]bool, len(pool))
	for _, p := range pool {
		inPool[p] = true
	}
	for _, c := range centers {
		if !inPool[c] {
			inPool[c] = true
			pool = append(pool, c)
		}
	}
	report.Pool = pool

	entries, degraded, err := e.fingerprinter.Entries(ctx, pool)
	if err != nil {
		return err
	}
	report.addDegradations(degraded...)

	grouper := similarity.NewGrouper(e.builder, entries)
	for _, c := range centers {
		neighbors, err := grouper.RelatedEdges(ctx, c, opts.TopK, opts.Threshold)
		if err != nil {
			return err
		}
		related := make([]string, len(neighbors))
		for i, n := range neighbors {
			related[i] = n.Path
		}
		report.Groups[c] = related
		report.Related[c] = neighbors
	}
	return nil
}

func (e *Engine) attachProvenance(ctx context.Context, report *Report) {
	state, err := e.vcs.GetRepoState(ctx)
	if err != nil {
		e.logger.Warn("Could not compute repository state", "error", err.Error())
		report.Warnings = append(report.Warnings, "provenance: "+err.Error())
		return
	}
	report.Provenance = state
}

func normalize(files []string) []string {
	out := make([]string, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		p := paths.NormalizePath(f)
		if len(p) > 2 && p[:2] == "./" {
			p = p[2:]
		}
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

type unavailableStatus struct{}

func (unavailableStatus) Status(context.Context) ([]git.StatusEntry, error) {
	return nil, errors.New(errors.BackendUnavailable, "Git is not available", nil)
}
