package annostore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with annostore-specific context.
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

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", id),
	}
}

// WithItem adds an item field to the logger.
func (l *Logger) WithItem(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("item", id),
	}
}

// LogLoadObjects logs a merged object query.
func (l *Logger) LogLoadObjects(ctx context.Context, sources, objects int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load objects failed",
			"sources", sources,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load objects completed",
			"sources", sources,
			"objects", objects,
		)
	}
}

// LogLoadItems logs a page of items.
func (l *Logger) LogLoadItems(ctx context.Context, page, size, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load items failed",
			"page", page,
			"size", size,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load items completed",
			"page", page,
			"size", size,
			"total", total,
		)
	}
}

// LogSave logs a replacement of the objects of one item.
func (l *Logger) LogSave(ctx context.Context, partition string, saved, removed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save objects failed",
			"partition", partition,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "objects saved",
			"partition", partition,
			"saved", saved,
			"removed", removed,
		)
	}
}

// LogEmbedding logs an embedding lookup.
func (l *Logger) LogEmbedding(ctx context.Context, source string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load embedding failed",
			"source", source,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load embedding completed",
			"source", source,
			"bytes", size,
		)
	}
}
