package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"filescope/internal/changes"
	"filescope/internal/errors"
	"filescope/internal/repostate"
	"filescope/internal/scope"
	"filescope/internal/scoring"
	"filescope/internal/similarity"
	"filescope/internal/version"
)

func sampleReport() *scope.Report {
	return &scope.Report{
		RunID:      "3f1c8a52-0000-4000-8000-000000000001",
		StartedAt:  time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		DurationMs: 12,
		Provenance: &repostate.RepoState{RepoStateID: "0123456789abcdef", HeadCommit: "abc", Dirty: true},
		Changed:    []string{"pkg/a.py", "pkg/b.py"},
		Selected:   []string{"pkg/a.py"},
		Scores:     map[string]float64{"pkg/a.py": 1, "pkg/b.py": 0.4},
		PoolMode:   "changed",
		Pool:       []string{"pkg/a.py", "pkg/b.py"},
		TopK:       3,
		Threshold:  40,
		Groups:     map[string][]string{"pkg/a.py": {"pkg/b.py"}},
		Related: map[string][]similarity.Neighbor{
			"pkg/a.py": {{Path: "pkg/b.py", Distance: 12, Raw: 20}},
		},
		Degradations: []errors.Degradation{
			{Path: "pkg/b.py", Stage: errors.StageFingerprint, Code: errors.ParseFailed, Reason: "bad syntax"},
		},
		DegradedCount: 1,
		Warnings:      []string{"churn: git diff failed"},
	}
}

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	resp := map[string]string{"key": "value"}

	_, err := FormatResponse(resp, "xml")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatResponse_ReportJSONShape(t *testing.T) {
	out, err := FormatResponse(sampleReport(), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"runId", "changed", "selected", "scores", "groups", "degradations", "degradedCount", "distanceThreshold"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report JSON missing %q", key)
		}
	}
}

func TestFormatReportHuman(t *testing.T) {
	out, err := FormatResponse(sampleReport(), FormatHuman)
	if err != nil {
		t.Fatal(err)
	}

	wantParts := []string{
		"filescope run 3f1c8a52",
		"Repo State: 0123456789ab (dirty: true)",
		"Changed (2):",
		"* pkg/a.py",
		"Groups (pool: changed, 2 files, top 3, distance < 40):",
		"→ pkg/b.py",
		"Degraded (1 files):",
		"[fingerprint/PARSE_FAILED] bad syntax",
		"! churn: git diff failed",
	}
	for _, part := range wantParts {
		if !strings.Contains(out, part) {
			t.Errorf("human report missing %q:\n%s", part, out)
		}
	}
}

func TestFormatHuman_FallsBackToJSON(t *testing.T) {
	out, err := FormatResponse(map[string]int{"n": 1}, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"n": 1`) {
		t.Errorf("fallback output = %q", out)
	}
}

func TestFormatError(t *testing.T) {
	err := fmt.Errorf("run: %w", errors.New(errors.ConfigInvalid, "no extensions", nil))

	jsonOut := formatError(err, FormatJSON)
	var decoded ErrorResponseCLI
	if jsonErr := json.Unmarshal([]byte(jsonOut), &decoded); jsonErr != nil {
		t.Fatalf("error output is not JSON: %v\n%s", jsonErr, jsonOut)
	}
	if decoded.Error.Code != errors.ConfigInvalid {
		t.Errorf("code = %q, want %q", decoded.Error.Code, errors.ConfigInvalid)
	}
	if len(decoded.Error.SuggestedFixes) == 0 {
		t.Error("suggested fixes missing from JSON error")
	}

	human := formatError(err, FormatHuman)
	if !strings.Contains(human, "CONFIG_INVALID") || !strings.Contains(human, "filescope config init") {
		t.Errorf("human error = %q", human)
	}

	plain := formatError(fmt.Errorf("boom"), FormatJSON)
	if !strings.Contains(plain, "INTERNAL_ERROR") {
		t.Errorf("plain error = %q, want INTERNAL_ERROR", plain)
	}
}

func TestConvertChanged(t *testing.T) {
	resp := convertChanged([]changes.FileRecord{
		{Path: "a.py", Ext: ".py", Status: changes.Added, Exists: true},
		{Path: "b.py", Ext: ".py", Status: changes.Modified, Exists: true},
	})
	if len(resp.Files) != 2 || resp.Files[0].Status != "added" || resp.Files[1].Status != "modified" {
		t.Errorf("convertChanged() = %+v", resp.Files)
	}

	out, _ := FormatResponse(resp, FormatHuman)
	if !strings.Contains(out, "Changed files (2):") {
		t.Errorf("human changed = %q", out)
	}

	empty, _ := FormatResponse(convertChanged(nil), FormatHuman)
	if empty != "No changed files" {
		t.Errorf("empty human changed = %q", empty)
	}
}

func TestScoredFiles(t *testing.T) {
	result := &scoring.Result{Scores: map[string]float64{"a.py": 1, "b.py": 0.2}}

	got := scoredFiles([]string{"b.py", "a.py", "b.py"}, result)
	if strings.Join(got, ",") != "b.py,a.py" {
		t.Errorf("scoredFiles() = %v, want argument order", got)
	}

	got = scoredFiles([]string{"./b.py", "./a.py"}, result)
	if strings.Join(got, ",") != "a.py,b.py" {
		t.Errorf("scoredFiles(normalized) = %v, want sorted keys", got)
	}
}

func TestGroupingOptions(t *testing.T) {
	base := scope.Options{Pool: "changed", TopK: 3, Threshold: 40}

	tests := []struct {
		name     string
		args     []string
		wantTopK int
		wantThr  int
	}{
		{"defaults", nil, 3, 40},
		{"override both", []string{"--top-k=5", "--threshold=10"}, 5, 10},
		{"zero threshold", []string{"--threshold=0"}, 3, 0},
		{"negative threshold", []string{"--threshold=-5"}, 3, -5},
		{"negative threshold separate arg", []string{"--threshold", "-12"}, 3, -12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var topK, threshold int
			cmd := &cobra.Command{Use: "group"}
			cmd.Flags().IntVar(&topK, "top-k", 0, "")
			cmd.Flags().IntVar(&threshold, "threshold", 0, "")
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags(%q) error = %v", tt.args, err)
			}

			got := groupingOptions(cmd, base, topK, threshold)
			if got.TopK != tt.wantTopK || got.Threshold != tt.wantThr {
				t.Errorf("groupingOptions() = %+v", got)
			}
		})
	}
}

func TestFormatResponse_BuildInfo(t *testing.T) {
	b := version.BuildInfo{Version: "0.4.0", Commit: "abc123", GoVersion: "go1.24.11", Platform: "linux/amd64"}

	human, err := FormatResponse(b, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(human, "filescope 0.4.0\n") || !strings.Contains(human, "commit:   abc123") {
		t.Errorf("human = %q", human)
	}

	out, err := FormatResponse(b, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"commit": "abc123"`) || strings.Contains(out, "buildDate") {
		t.Errorf("json = %s", out)
	}
}

func TestValidPool(t *testing.T) {
	for _, p := range []string{"changed", "selected", "repo"} {
		if !validPool(p) {
			t.Errorf("validPool(%q) = false", p)
		}
	}
	if validPool("everything") {
		t.Error("validPool(everything) = true")
	}
}

func TestSummarize(t *testing.T) {
	s := summarize("run", sampleReport())

	if s.ID != "3f1c8a52-0000-4000-8000-000000000001" || s.Command != "run" {
		t.Errorf("summary = %+v", s)
	}
	if s.ChangedCount != 2 || s.SelectedCount != 1 || s.PoolSize != 2 || s.DegradedCount != 1 {
		t.Errorf("summary counts = %+v", s)
	}
	if s.RepoStateID != "0123456789abcdef" || s.HeadCommit != "abc" {
		t.Errorf("summary provenance = %+v", s)
	}

	bare := sampleReport()
	bare.Provenance = nil
	if s := summarize("group", bare); s.RepoStateID != "" {
		t.Errorf("RepoStateID = %q, want empty", s.RepoStateID)
	}
}

func TestConfigRendering(t *testing.T) {
	tests := map[string]string{
		"json":  "json",
		"human": "yaml",
		"yaml":  "yaml",
		"toml":  "toml",
	}
	for in, want := range tests {
		if got := configRendering(in); got != want {
			t.Errorf("configRendering(%q) = %q, want %q", in, got, want)
		}
	}
}
