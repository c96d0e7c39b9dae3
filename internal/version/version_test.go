package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuild(t *testing.T, version, commit, date string, settings []debug.BuildSetting) {
	t.Helper()
	oldV, oldC, oldD, oldRead := Version, Commit, BuildDate, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, BuildDate, readBuildInfo = oldV, oldC, oldD, oldRead
	})
	Version, Commit, BuildDate = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		if settings == nil {
			return nil, false
		}
		return &debug.BuildInfo{Settings: settings}, true
	}
}

func TestGet_VCSFallback(t *testing.T) {
	stamp := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	tests := []struct {
		name       string
		commit     string
		date       string
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
		wantDirty  bool
	}{
		{"no build info", "", "", nil, "", "", false},
		{"vcs stamp only", "", "", stamp, "0123456789abcdef0123", "2026-10-01T12:00:00Z", true},
		{"ldflags win", "feedface", "2026-09-30", stamp, "feedface", "2026-09-30", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, "1.0.0", tt.commit, tt.date, tt.settings)

			b := Get()
			if b.Version != "1.0.0" || b.Commit != tt.wantCommit || b.BuildDate != tt.wantDate || b.Modified != tt.wantDirty {
				t.Errorf("Get() = %+v", b)
			}
			if !strings.HasPrefix(b.GoVersion, "go") || !strings.Contains(b.Platform, "/") {
				t.Errorf("runtime fields = %q, %q", b.GoVersion, b.Platform)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name     string
		commit   string
		settings []debug.BuildSetting
		want     string
	}{
		{"no commit", "", nil, "2.1.0"},
		{"short commit kept", "abc", nil, "2.1.0 (abc)"},
		{"long commit cut", "0123456789abcdef", nil, "2.1.0 (0123456789ab)"},
		{"dirty tree", "abc", []debug.BuildSetting{{Key: "vcs.modified", Value: "true"}}, "2.1.0 (abc-dirty)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, "2.1.0", tt.commit, "", tt.settings)
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	withBuild(t, "1.2.3", "deadbeef", "", nil)

	got := Full()
	for _, part := range []string{"filescope 1.2.3\n", "commit:   deadbeef\n", "go:       go", "platform: "} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
	if strings.Contains(got, "built:") {
		t.Errorf("Full() = %q, empty build date should be omitted", got)
	}
}
