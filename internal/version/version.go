// Package version reports how the running filescope binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Overridden by the release build:
//
//	-ldflags "-X filescope/internal/version.Version=0.5.0 -X filescope/internal/version.Commit=<sha>"
var (
	Version   = "0.4.0"
	Commit    = ""
	BuildDate = ""
)

// BuildInfo describes the binary. Commit and BuildDate fall back to the VCS
// stamp the go tool embeds when the linker flags were not set.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get collects the build information of the running binary.
func Get() BuildInfo {
	bi := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := readBuildInfo()
	if !ok {
		return bi
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.BuildDate == "" {
				bi.BuildDate = s.Value
			}
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}
	return bi
}

// ShortCommit is the first 12 characters of the commit, if any.
func (b BuildInfo) ShortCommit() string {
	if len(b.Commit) > 12 {
		return b.Commit[:12]
	}
	return b.Commit
}

// Info is the one-line form used by --version.
func Info() string {
	b := Get()
	c := b.ShortCommit()
	if c == "" {
		return b.Version
	}
	if b.Modified {
		c += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", b.Version, c)
}

// Full is the multi-line form printed by the version command.
func Full() string {
	return Get().String()
}

// String renders b over several lines, omitting unknown fields.
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "filescope %s\n", b.Version)
	if b.Commit != "" {
		fmt.Fprintf(&sb, "  commit:   %s", b.Commit)
		if b.Modified {
			sb.WriteString(" (modified)")
		}
		sb.WriteByte('\n')
	}
	if b.BuildDate != "" {
		fmt.Fprintf(&sb, "  built:    %s\n", b.BuildDate)
	}
	fmt.Fprintf(&sb, "  go:       %s\n", b.GoVersion)
	fmt.Fprintf(&sb, "  platform: %s", b.Platform)
	return sb.String()
}
