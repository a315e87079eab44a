// Package logger builds the collector's slog.Logger from the configured
// level and format and tags each run with its own identifier.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// RunIDKey is the attribute carrying the run identifier.
const RunIDKey = "run_id"

// Options selects the handler. Zero values log text at info level to stderr.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json
	Writer io.Writer
}

// New creates a *slog.Logger from opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}

	return slog.New(handler)
}

// ForRun returns l tagged with a fresh run identifier, and the identifier.
func ForRun(l *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return l.With(RunIDKey, id), id
}

// ParseLevel converts a level string to slog.Level, ignoring case.
// Anything unrecognized is treated as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
