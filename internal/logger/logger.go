// Package logger sets up log/slog for the lexicache command.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel converts a string level name to slog.Level.
// Supported values: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized values.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. Format "json" selects the JSON handler,
// anything else the text handler.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.LevelKey {
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			}
			return attr
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init creates a logger like New and installs it as the slog default.
func Init(w io.Writer, level, format string) *slog.Logger {
	l := New(w, ParseLevel(level), format)
	slog.SetDefault(l)
	return l
}
