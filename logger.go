package covermatch

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with covermatch-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPivot adds a pivot field to the logger.
func (l *Logger) WithPivot(pivot string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pivot", pivot),
	}
}

// WithK adds a k (result count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogRank logs a ranked-match operation.
func (l *Logger) LogRank(ctx context.Context, mode Mode, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rank failed",
			"mode", mode.String(),
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "rank completed",
			"mode", mode.String(),
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogResolveDegraded logs a categorical resolution that fell back to the
// segment mode.
func (l *Logger) LogResolveDegraded(ctx context.Context, kind, text string) {
	l.DebugContext(ctx, "category resolution degraded",
		"kind", kind,
		"text", text,
	)
}

// LogReload logs a catalog reload.
func (l *Logger) LogReload(ctx context.Context, items, dropped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reload failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "reload completed",
			"items", items,
			"dropped", dropped,
		)
	}
}
