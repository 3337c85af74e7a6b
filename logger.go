package fieldgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fieldgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSource adds the name of the file or blob being read or written.
func (l *Logger) WithSource(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", name),
	}
}

// LogBuild logs the construction of a field from a pack.
func (l *Logger) LogBuild(ctx context.Context, depth int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field build failed",
			"depth", depth,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "field built",
			"depth", depth,
		)
	}
}

// LogLoad logs a field load.
func (l *Logger) LogLoad(ctx context.Context, depth int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field load failed",
			"depth", depth,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "field loaded",
			"depth", depth,
			"bytes", bytes,
		)
	}
}

// LogDump logs a field dump.
func (l *Logger) LogDump(ctx context.Context, depth int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field dump failed",
			"depth", depth,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "field dumped",
			"depth", depth,
			"bytes", bytes,
		)
	}
}
