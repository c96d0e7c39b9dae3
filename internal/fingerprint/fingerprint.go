// Package fingerprint turns a file's declared symbols and imports into a
// 64-bit simhash that can be compared by Hamming distance.
package fingerprint

import (
	"context"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"filescope/internal/errors"
	"filescope/internal/paths"
	"filescope/internal/symbols"
)

// EmptyFeature stands in for a file with no surviving features so that
// failed and empty files still get a stable fingerprint.
const EmptyFeature = "__empty__"

// Fingerprint is a 64-bit simhash.
type Fingerprint uint64

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Signature is the ordered structural skeleton of one file.
type Signature struct {
	Symbols []string `json:"symbols"`
	Imports []string `json:"imports"`
}

// IsEmpty reports whether the signature has neither symbols nor imports.
func (s Signature) IsEmpty() bool {
	return len(s.Symbols) == 0 && len(s.Imports) == 0
}

// Outcome is the result of signature extraction for one file. A failed
// outcome still carries an (empty) Signature.
type Outcome struct {
	Path      string             `json:"path"`
	Signature Signature          `json:"signature"`
	Partial   bool               `json:"partial,omitempty"`
	Err       *errors.ScopeError `json:"error,omitempty"`
}

// OK reports whether extraction succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Parser is the outline collaborator.
type Parser interface {
	ExtractSource(ctx context.Context, source []byte, lang symbols.Language) (*symbols.Outline, error)
}

// Fingerprinter extracts signatures and applies the stopword and weighting
// policy. It is safe for concurrent use.
type Fingerprinter struct {
	repoRoot  string
	parser    Parser
	stopwords map[string]bool
	workers   int
	logger    *slog.Logger
}

// New creates a Fingerprinter rooted at repoRoot. Paths passed to it are
// repo-relative.
func New(repoRoot string, parser Parser, stopwords []string, workers int, logger *slog.Logger) *Fingerprinter {
	sw := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		sw[w] = true
	}
	if workers < 1 {
		workers = 1
	}
	return &Fingerprinter{
		repoRoot:  repoRoot,
		parser:    parser,
		stopwords: sw,
		workers:   workers,
		logger:    logger,
	}
}

// Signature reads and parses the file at path. It never returns an error:
// read and parse failures produce a failed Outcome with an empty Signature.
func (f *Fingerprinter) Signature(ctx context.Context, path string) Outcome {
	out := Outcome{Path: path, Signature: Signature{Symbols: []string{}, Imports: []string{}}}

	lang, ok := symbols.LanguageFromExtension(paths.Ext(path))
	if !ok {
		out.Err = errors.New(errors.ParseFailed, "No parser for file type", nil).
			WithDetails(map[string]interface{}{"path": path})
		return out
	}

	source, err := os.ReadFile(filepath.Join(f.repoRoot, filepath.FromSlash(path)))
	if err != nil {
		out.Err = errors.New(errors.IOFailed, "Failed to read file", err).
			WithDetails(map[string]interface{}{"path": path})
		return out
	}

	outline, err := f.parser.ExtractSource(ctx, source, lang)
	if err != nil || outline == nil {
		out.Err = errors.New(errors.ParseFailed, "Failed to parse file", err).
			WithDetails(map[string]interface{}{"path": path})
		return out
	}

	out.Signature.Symbols = append(out.Signature.Symbols, outline.Symbols...)
	out.Signature.Imports = append(out.Signature.Imports, outline.Imports...)
	out.Partial = outline.Partial
	return out
}

// SurvivingImports returns the imports not in the stopword set, in order.
func (f *Fingerprinter) SurvivingImports(sig Signature) []string {
	kept := make([]string, 0, len(sig.Imports))
	for _, imp := range sig.Imports {
		if !f.stopwords[imp] {
			kept = append(kept, imp)
		}
	}
	return kept
}

// Features returns the weighted feature multiset: every symbol once, every
// surviving import once, then the first half of the surviving imports again.
func (f *Fingerprinter) Features(sig Signature) []string {
	imports := f.SurvivingImports(sig)
	features := make([]string, 0, len(sig.Symbols)+len(imports)+len(imports)/2)
	features = append(features, sig.Symbols...)
	features = append(features, imports...)
	features = append(features, imports[:len(imports)/2]...)

	if len(features) == 0 {
		return []string{EmptyFeature}
	}
	return features
}

// Fingerprint computes the simhash of sig's feature multiset.
func (f *Fingerprinter) Fingerprint(sig Signature) Fingerprint {
	return Simhash(f.Features(sig))
}

// Simhash computes a 64-bit simhash where each occurrence of a feature
// votes +1/-1 on each bit of its xxhash. Bit i is set when its vote is positive.
func Simhash(features []string) Fingerprint {
	var votes [64]int
	for _, feat := range features {
		h := xxhash.Sum64String(feat)
		for i := 0; i < 64; i++ {
			if h&(1<<uint(i)) != 0 {
				votes[i]++
			} else {
				votes[i]--
			}
		}
	}

	var fp uint64
	for i, v := range votes {
		if v > 0 {
			fp |= 1 << uint(i)
		}
	}
	return Fingerprint(fp)
}

// Distance returns the Hamming distance between two fingerprints (0..64).
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a) ^ uint64(b))
}
