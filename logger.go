package slotstore

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with slotstore-specific context.
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStore adds a store name field to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
	}
}

// WithStage adds a stage name field to the logger.
func (l *Logger) WithStage(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stage", name),
	}
}

// LogStoreCreated logs the creation of a store.
func (l *Logger) LogStoreCreated(ctx context.Context, name, kind string) {
	l.DebugContext(ctx, "store created",
		"store", name,
		"kind", kind,
	)
}

// LogBorrowConflict logs a rejected borrow.
func (l *Logger) LogBorrowConflict(ctx context.Context, err *BorrowError) {
	l.ErrorContext(ctx, "borrow conflict",
		"store", err.Store,
		"want", err.Want.String(),
		"state", err.State,
	)
}

// LogStage logs a stage run.
func (l *Logger) LogStage(ctx context.Context, name string, slots int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", name,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stage completed",
			"stage", name,
			"slots", slots,
			"duration", duration,
		)
	}
}

// LogClose logs closing a registry.
func (l *Logger) LogClose(ctx context.Context, stores int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "registry close failed",
			"stores", stores,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "registry closed",
			"stores", stores,
		)
	}
}
