package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"filescope/internal/errors"
	"filescope/internal/scope"
	"filescope/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *scope.Report:
		return formatReportHuman(v), nil
	case *ChangedResponseCLI:
		return formatChangedHuman(v), nil
	case *ScoreResponseCLI:
		return formatScoreHuman(v), nil
	case *RelatedResponseCLI:
		return formatRelatedHuman(v), nil
	case *HistoryListResponseCLI:
		return formatHistoryListHuman(v), nil
	case version.BuildInfo:
		return v.String(), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// ErrorResponseCLI wraps a fatal error for JSON output
type ErrorResponseCLI struct {
	Error *errors.ScopeError `json:"error"`
}

// formatError renders err. Errors without a code are reported as
// INTERNAL_ERROR.
func formatError(err error, format OutputFormat) string {
	var se *errors.ScopeError
	if !stderrors.As(err, &se) {
		se = errors.New(errors.InternalError, err.Error(), nil)
	}

	if format == FormatJSON {
		out, jsonErr := formatJSON(&ErrorResponseCLI{Error: se})
		if jsonErr == nil {
			return out
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Error: %s\n", se.Error()))
	for _, fix := range se.SuggestedFixes {
		switch {
		case fix.Command != "":
			b.WriteString(fmt.Sprintf("  → %s ($ %s)\n", fix.Description, fix.Command))
		case fix.Field != "":
			b.WriteString(fmt.Sprintf("  → %s (%s)\n", fix.Description, fix.Field))
		default:
			b.WriteString(fmt.Sprintf("  → %s\n", fix.Description))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatReportHuman formats a pipeline report
func formatReportHuman(r *scope.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("filescope run %s\n", r.RunID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if r.Provenance != nil {
		state := r.Provenance.RepoStateID
		if len(state) > 12 {
			state = state[:12]
		}
		b.WriteString(fmt.Sprintf("Repo State: %s (dirty: %v)\n\n", state, r.Provenance.Dirty))
	}

	if len(r.Changed) > 0 {
		b.WriteString(fmt.Sprintf("Changed (%d):\n", len(r.Changed)))
		selected := make(map[string]bool, len(r.Selected))
		for _, s := range r.Selected {
			selected[s] = true
		}
		for _, c := range r.Changed {
			mark := " "
			if selected[c] {
				mark = "*"
			}
			b.WriteString(fmt.Sprintf("  %s %-50s %.4f\n", mark, c, r.Scores[c]))
		}
		if r.Bypassed {
			b.WriteString("  (small batch: every file selected)\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Groups (pool: %s, %d files, top %d, distance < %d):\n",
		r.PoolMode, len(r.Pool), r.TopK, r.Threshold))
	if len(r.Groups) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, center := range sortedKeys(r.Groups) {
		b.WriteString(fmt.Sprintf("  %s\n", center))
		neighbors := r.Related[center]
		if len(neighbors) == 0 {
			b.WriteString("    (no related files)\n")
			continue
		}
		for _, n := range neighbors {
			b.WriteString(fmt.Sprintf("    → %-46s %4d\n", n.Path, n.Distance))
		}
	}

	if r.DegradedCount > 0 {
		b.WriteString(fmt.Sprintf("\nDegraded (%d files):\n", r.DegradedCount))
		for _, d := range r.Degradations {
			b.WriteString(fmt.Sprintf("  ! %s [%s/%s] %s\n", d.Path, d.Stage, d.Code, d.Reason))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("  ! %s\n", w))
		}
	}

	b.WriteString(fmt.Sprintf("\n(took %dms)", r.DurationMs))
	return b.String()
}

func formatChangedHuman(resp *ChangedResponseCLI) string {
	if len(resp.Files) == 0 {
		return "No changed files"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Changed files (%d):\n", len(resp.Files)))
	for _, f := range resp.Files {
		b.WriteString(fmt.Sprintf("  %-9s %s\n", f.Status, f.Path))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatScoreHuman(resp *ScoreResponseCLI) string {
	if len(resp.Files) == 0 {
		return "No files to score"
	}

	selected := make(map[string]bool, len(resp.Selected))
	for _, s := range resp.Selected {
		selected[s] = true
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Scores (%d selected of %d):\n", len(resp.Selected), len(resp.Files)))
	for _, f := range resp.Files {
		mark := " "
		if selected[f] {
			mark = "*"
		}
		b.WriteString(fmt.Sprintf("  %s %-50s %.4f\n", mark, f, resp.Scores[f]))
	}
	if resp.Bypassed {
		b.WriteString("  (small batch: every file selected)\n")
	}
	for _, w := range resp.Warnings {
		b.WriteString(fmt.Sprintf("  ! %s\n", w))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRelatedHuman(resp *RelatedResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Related to %s:\n", resp.File))
	if len(resp.Related) == 0 {
		b.WriteString("  (no related files)\n")
	}
	for i, n := range resp.Related {
		b.WriteString(fmt.Sprintf("  %d. %-46s %4d (raw %d)\n", i+1, n.Path, n.Distance, n.Raw))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistoryListHuman(resp *HistoryListResponseCLI) string {
	if len(resp.Runs) == 0 {
		return "No recorded runs"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-36s  %-20s  %-7s  %7s  %8s  %4s  %8s\n",
		"ID", "STARTED", "COMMAND", "CHANGED", "SELECTED", "POOL", "DEGRADED"))
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%-36s  %-20s  %-7s  %7d  %8d  %4d  %8d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Command,
			r.ChangedCount,
			r.SelectedCount,
			r.PoolSize,
			r.DegradedCount,
		))
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
