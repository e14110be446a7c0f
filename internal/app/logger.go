package app

import (
	"io"
	"log/slog"
)

// newLogger builds the process logger for the given level and format. It
// leaves the slog default untouched so several Apps can coexist in tests.
// Unknown levels fall back to info. Debug records carry their source line.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler).With("service", "tracegrid")
}
