package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Logger is the subset of *slog.Logger the rest of the program depends on.
type Logger interface {
	Info(msg string, keyvals ...any)

	Warn(msg string, keyvals ...any)

	Error(msg string, keyvals ...any)

	Debug(msg string, keyvals ...any)
}

// New returns a text logger writing to w at the given level
// ("debug", "info", "warn" or "error").
func New(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
