package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"filescope/internal/config"
	"filescope/internal/errors"
	"filescope/internal/slogutil"
)

// setupTestRepo creates an empty git repository in a temp dir
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGitT(t, dir, "init", "-q")
	runGitT(t, dir, "config", "user.email", "test@example.com")
	runGitT(t, dir, "config", "user.name", "Test")
	runGitT(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

func runGitT(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTestAdapter(t *testing.T, dir string) *GitAdapter {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RepoRoot = dir

	adapter, err := NewGitAdapter(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter() error = %v", err)
	}
	return adapter
}

func TestNewGitAdapter(t *testing.T) {
	dir := setupTestRepo(t)
	adapter := setupTestAdapter(t, dir)

	if adapter.ID() != BackendID {
		t.Errorf("ID() = %q, want %q", adapter.ID(), BackendID)
	}
	if adapter.queryTimeout != DefaultQueryTimeout {
		t.Errorf("queryTimeout = %v, want %v", adapter.queryTimeout, DefaultQueryTimeout)
	}
}

func TestNewGitAdapter_CustomTimeout(t *testing.T) {
	dir := setupTestRepo(t)
	cfg := config.DefaultConfig()
	cfg.RepoRoot = dir
	cfg.Backends.Git.TimeoutMs = 1500

	adapter, err := NewGitAdapter(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("NewGitAdapter() error = %v", err)
	}
	if adapter.queryTimeout != 1500*time.Millisecond {
		t.Errorf("queryTimeout = %v, want 1.5s", adapter.queryTimeout)
	}
}

func TestNewGitAdapter_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	cfg := config.DefaultConfig()
	cfg.RepoRoot = t.TempDir()

	_, err := NewGitAdapter(cfg, slogutil.NewDiscardLogger())
	if !errors.Is(err, errors.BackendUnavailable) {
		t.Errorf("error = %v, want BACKEND_UNAVAILABLE", err)
	}
}

func TestNewGitAdapter_NilLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := NewGitAdapter(cfg, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestParseStatusV2(t *testing.T) {
	output := "# branch.oid (initial)\n" +
		"# branch.head main\n" +
		"1 .M N... 100644 100644 100644 aaa bbb src/app.py\n" +
		"1 A. N... 000000 100644 100644 000 ccc pkg/new file.py\n" +
		"2 R. N... 100644 100644 100644 ddd ddd R100 lib/renamed.py\tlib/old.py\n" +
		"u UU N... 100644 100644 100644 100644 e1 e2 e3 conflict.py\n" +
		"? notes.txt\n" +
		"! ignored.log\n" +
		"1 broken\n"

	got := ParseStatusV2(output)
	want := []StatusEntry{
		{Kind: "1", Code: ".M", Path: "src/app.py"},
		{Kind: "1", Code: "A.", Path: "pkg/new file.py"},
		{Kind: "2", Code: "R.", Path: "lib/renamed.py", OrigPath: "lib/old.py"},
		{Kind: "u", Code: "UU", Path: "conflict.py"},
		{Kind: "?", Code: "??", Path: "notes.txt"},
		{Kind: "!", Code: "!!", Path: "ignored.log"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseStatusV2() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestParseStatusV2_Empty(t *testing.T) {
	if got := ParseStatusV2(""); len(got) != 0 {
		t.Errorf("ParseStatusV2(\"\") = %v, want empty", got)
	}
}

func TestParseNumstatLine(t *testing.T) {
	tests := []struct {
		line   string
		want   DiffStats
		wantOK bool
	}{
		{"10\t2\tsrc/a.py", DiffStats{FilePath: "src/a.py", Additions: 10, Deletions: 2}, true},
		{"0\t0\tempty.py", DiffStats{FilePath: "empty.py"}, true},
		{"-\t-\timg.png", DiffStats{FilePath: "img.png", IsBinary: true}, true},
		{"x\t1\tbad.py", DiffStats{}, false},
		{"1\t2", DiffStats{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseNumstatLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseNumstatLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMergeDiffStats(t *testing.T) {
	unstaged := []DiffStats{{FilePath: "a.py", Additions: 3, Deletions: 1}}
	staged := []DiffStats{
		{FilePath: "b.py", Additions: 7},
		{FilePath: "a.py", Additions: 2, Deletions: 2},
	}

	got := mergeDiffStats(unstaged, staged)
	want := []DiffStats{
		{FilePath: "a.py", Additions: 5, Deletions: 3},
		{FilePath: "b.py", Additions: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeDiffStats() = %+v, want %+v", got, want)
	}
	if got[0].Churn() != 8 {
		t.Errorf("Churn() = %d, want 8", got[0].Churn())
	}
}

func TestSinceArg(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{5 * 24 * time.Hour, "--since=5.days"},
		{24 * time.Hour, "--since=1.days"},
		{90 * time.Minute, "--since=5400.seconds"},
	}
	for _, tt := range tests {
		if got := sinceArg(tt.window); got != tt.want {
			t.Errorf("sinceArg(%v) = %q, want %q", tt.window, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\n\n  \nb\r\n")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("splitLines() = %q", got)
	}
}

func TestGitAdapter_Integration(t *testing.T) {
	dir := setupTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "src/core.py", "def a():\n    pass\n")
	runGitT(t, dir, "add", ".")
	runGitT(t, dir, "commit", "-q", "-m", "initial core")

	writeFile(t, dir, "src/core.py", "def a():\n    pass\n\ndef b():\n    pass\n")
	writeFile(t, dir, "src/added.py", "x = 1\ny = 2\n")
	runGitT(t, dir, "add", "src/added.py")
	writeFile(t, dir, "scratch.py", "z = 3\n")

	adapter := setupTestAdapter(t, dir)

	t.Run("Status", func(t *testing.T) {
		entries, err := adapter.Status(ctx)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		byPath := map[string]StatusEntry{}
		for _, e := range entries {
			byPath[e.Path] = e
		}
		if e := byPath["src/core.py"]; e.Code != ".M" {
			t.Errorf("core.py code = %q, want .M", e.Code)
		}
		if e := byPath["src/added.py"]; e.Code != "A." {
			t.Errorf("added.py code = %q, want A.", e.Code)
		}
		if e := byPath["scratch.py"]; e.Kind != "?" {
			t.Errorf("scratch.py kind = %q, want ?", e.Kind)
		}
	})

	t.Run("DiffNumstat", func(t *testing.T) {
		stats, err := adapter.DiffNumstat(ctx, []string{"src/core.py", "src/added.py"})
		if err != nil {
			t.Fatalf("DiffNumstat() error = %v", err)
		}
		byPath := map[string]DiffStats{}
		for _, s := range stats {
			byPath[s.FilePath] = s
		}
		if got := byPath["src/core.py"].Additions; got != 3 {
			t.Errorf("core.py additions = %d, want 3", got)
		}
		if got := byPath["src/added.py"].Additions; got != 2 {
			t.Errorf("added.py additions = %d, want 2", got)
		}
	})

	t.Run("DiffNumstat empty", func(t *testing.T) {
		stats, err := adapter.DiffNumstat(ctx, nil)
		if err != nil || len(stats) != 0 {
			t.Errorf("DiffNumstat(nil) = %v, %v", stats, err)
		}
	})

	t.Run("CommitSubjectsSince", func(t *testing.T) {
		subjects, err := adapter.CommitSubjectsSince(ctx, "src/core.py", 5*24*time.Hour)
		if err != nil {
			t.Fatalf("CommitSubjectsSince() error = %v", err)
		}
		if !reflect.DeepEqual(subjects, []string{"initial core"}) {
			t.Errorf("subjects = %q", subjects)
		}
	})

	t.Run("FileAuthors", func(t *testing.T) {
		authors, err := adapter.FileAuthors(ctx, "src/core.py")
		if err != nil {
			t.Fatalf("FileAuthors() error = %v", err)
		}
		if !reflect.DeepEqual(authors, []string{"Test"}) {
			t.Errorf("authors = %q", authors)
		}
	})

	t.Run("GetRepoState", func(t *testing.T) {
		state, err := adapter.GetRepoState(ctx)
		if err != nil {
			t.Fatalf("GetRepoState() error = %v", err)
		}
		if state.HeadCommit == "" || !state.Dirty {
			t.Errorf("state = %+v, want HEAD set and dirty", state)
		}
	})
}

func TestFileAuthors_NoCommits(t *testing.T) {
	dir := setupTestRepo(t)
	adapter := setupTestAdapter(t, dir)

	authors, err := adapter.FileAuthors(context.Background(), "a.py")
	if err != nil {
		t.Fatalf("FileAuthors() error = %v", err)
	}
	if len(authors) != 0 {
		t.Errorf("authors = %v, want empty", authors)
	}
}
