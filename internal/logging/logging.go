// Package logging builds the slog loggers handed to every component.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DebugEnv turns on debug output regardless of flags when set to any value.
const DebugEnv = "ASSISTANT_DEBUG"

// Options selects level and output format.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level   string
	Verbose bool
	Quiet   bool
	JSON    bool
	Writer  io.Writer
}

// New returns a logger writing to Options.Writer (stderr by default).
// Verbose forces debug, Quiet raises the floor to warn.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: resolveLevel(opts)}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func resolveLevel(opts Options) slog.Level {
	if opts.Verbose || os.Getenv(DebugEnv) != "" {
		return slog.LevelDebug
	}
	if opts.Quiet {
		return slog.LevelWarn
	}
	return ParseLevel(opts.Level)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
