// Package slogutil builds the loggers used by the CLI and the pipeline.
package slogutil

import (
	"io"
	"log/slog"
	"strings"
)

// Silent sits above every standard level, so nothing is emitted at it.
const Silent = slog.Level(100)

// Output formats accepted by New.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

var namedLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"silent":  Silent,
	"off":     Silent,
}

// Indexed by the -v count.
var verbosityLevels = []slog.Level{slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}

// ParseLevel resolves a level name case-insensitively.
func ParseLevel(name string) (slog.Level, bool) {
	level, ok := namedLevels[strings.ToLower(strings.TrimSpace(name))]
	return level, ok
}

// LevelFromString is ParseLevel with info for unknown names.
func LevelFromString(name string) slog.Level {
	if level, ok := ParseLevel(name); ok {
		return level
	}
	return slog.LevelInfo
}

// LevelFromVerbosity maps the -v count to a level, starting at warn.
// quiet wins over any count.
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return Silent
	}
	verbosity = max(0, min(verbosity, len(verbosityLevels)-1))
	return verbosityLevels[verbosity]
}

// New returns a JSON logger for FormatJSON and the human handler otherwise.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, FormatJSON) {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(NewHandler(w, opts))
}

// NewLogger returns a human-format logger.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return New(w, FormatHuman, level)
}

// NewJSONLogger returns a JSON logger.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return New(w, FormatJSON, level)
}

// NewDiscardLogger is used by tests and library callers without output.
func NewDiscardLogger() *slog.Logger {
	return New(io.Discard, FormatHuman, Silent)
}
