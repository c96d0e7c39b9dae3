package fingerprint

import (
	"context"

	"golang.org/x/sync/errgroup"

	"filescope/internal/errors"
)

// Entry is one fingerprinted pool file.
type Entry struct {
	Path        string      `json:"path"`
	Signature   Signature   `json:"signature"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Failed      bool        `json:"failed,omitempty"`
}

// Entries fingerprints every file of pool, preserving pool order. Failed
// files get the sentinel fingerprint and a Degradation. Only context
// cancellation returns an error.
func (f *Fingerprinter) Entries(ctx context.Context, pool []string) ([]Entry, []errors.Degradation, error) {
	outcomes := make([]Outcome, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, path := range pool {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = f.Signature(gctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, len(pool))
	var degraded []errors.Degradation
	for i, o := range outcomes {
		entries[i] = Entry{
			Path:        o.Path,
			Signature:   o.Signature,
			Fingerprint: f.Fingerprint(o.Signature),
			Failed:      !o.OK(),
		}
		if !o.OK() {
			f.logger.Debug("Signature extraction failed",
				"path", o.Path,
				"code", o.Err.Code,
			)
			degraded = append(degraded, errors.NewDegradation(o.Path, errors.StageFingerprint, o.Err))
		}
	}

	f.logger.Debug("Fingerprinted pool",
		"files", len(pool),
		"degraded", len(degraded),
	)
	return entries, degraded, nil
}
