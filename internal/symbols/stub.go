//go:build !cgo

package symbols

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when outline extraction is unavailable due to missing CGO.
var ErrNoCGO = errors.New("symbol extraction requires CGO (tree-sitter)")

// Extractor builds Outlines with tree-sitter.
// This is a stub implementation for non-CGO builds.
type Extractor struct{}

// NewExtractor creates a new outline extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// IsAvailable returns whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

// ExtractSource always fails with ErrNoCGO.
func (e *Extractor) ExtractSource(ctx context.Context, source []byte, lang Language) (*Outline, error) {
	return nil, ErrNoCGO
}
