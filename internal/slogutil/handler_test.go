package slogutil

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler_Line(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("Scored batch", "files", 4, "mode", "gt")

	line := strings.TrimSuffix(buf.String(), "\n")
	prefix, attrs, ok := strings.Cut(line, " | ")
	if !ok {
		t.Fatalf("no attribute separator in %q", line)
	}
	if !strings.HasSuffix(prefix, "[info] Scored batch") {
		t.Errorf("prefix = %q", prefix)
	}
	if attrs != "files=4 mode=gt" {
		t.Errorf("attrs = %q, want files=4 mode=gt", attrs)
	}
}

func TestHandler_Threshold(t *testing.T) {
	emit := func(l *slog.Logger) {
		l.Debug("d")
		l.Info("i")
		l.Warn("w")
		l.Error("e")
	}

	tests := []struct {
		level slog.Level
		want  []string
	}{
		{slog.LevelDebug, []string{"[debug] d", "[info] i", "[warn] w", "[error] e"}},
		{slog.LevelWarn, []string{"[warn] w", "[error] e"}},
		{slog.LevelError, []string{"[error] e"}},
		{Silent, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			emit(NewLogger(&buf, tt.level))

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if i := strings.Index(line, "["); i >= 0 {
					got = append(got, line[i:])
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("lines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandler_WithGroupAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("run", "abc").WithGroup("score")

	logger.Info("scored", "file", "a.py")

	output := buf.String()
	if !strings.Contains(output, "run=abc") {
		t.Errorf("expected run=abc in output, got: %s", output)
	}
	if !strings.Contains(output, "score.file=a.py") {
		t.Errorf("expected score.file=a.py in output, got: %s", output)
	}
}

func TestHandler_Quoting(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"plain", "a.py", "v=a.py"},
		{"spaces", "exit status 128", `v="exit status 128"`},
		{"equals", "a=b", `v="a=b"`},
		{"empty", "", `v=""`},
		{"error", errors.New("git diff failed"), `v="git diff failed"`},
		{"float", 0.75, "v=0.75"},
		{"bool", true, "v=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, slog.LevelInfo).Info("m", "v", tt.value)

			if !strings.Contains(buf.String(), " "+tt.want) {
				t.Errorf("output = %q, want to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestHandler_GroupAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("run", slog.Group("pool", "mode", "repo", "size", 12), slog.Group("empty"))

	output := buf.String()
	if !strings.Contains(output, "pool.mode=repo pool.size=12") {
		t.Errorf("expected flattened group, got: %s", output)
	}
	if strings.Contains(output, "empty") {
		t.Errorf("empty group should be dropped, got: %s", output)
	}
}

func TestHandler_NoAttrsNoSeparator(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("plain")

	if strings.Contains(buf.String(), "|") {
		t.Errorf("unexpected separator: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "[info] plain\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelInfo)

	logger.Info("hello", "count", 3)

	output := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("expected JSON object, got: %s", output)
	}
	if !strings.Contains(output, `"count":3`) {
		t.Errorf("expected count field, got: %s", output)
	}
}
