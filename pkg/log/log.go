// Package log configures the process-wide slog default used by every
// service binary.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default logger. Format is "json" for structured
// production output or anything else for the human-readable text handler.
func Setup(logLevel, format string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// WithModule tags a logger with the owning module name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
