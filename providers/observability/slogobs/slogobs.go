// Package slogobs implements observability.Logger on top of log/slog.
package slogobs

import (
	"context"
	"log/slog"

	"github.com/minsupark/paperlens/providers/observability"
)

// Logger adapts a *slog.Logger to the observability.Logger interface.
type Logger struct {
	base *slog.Logger
}

var _ observability.Logger = (*Logger)(nil)

// New creates a Logger backed by the given slog logger. A nil argument falls
// back to slog.Default().
func New(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{base: base}
}

// With returns a Logger whose underlying slog logger carries the given
// attributes on every record. Useful for attaching a run ID once.
func (l *Logger) With(attrs ...observability.Attribute) *Logger {
	return &Logger{base: l.base.With(toArgs(attrs)...)}
}

func (l *Logger) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.base.Log(ctx, slog.LevelDebug, msg, toArgs(attrs)...)
}

func (l *Logger) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.base.Log(ctx, slog.LevelInfo, msg, toArgs(attrs)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.base.Log(ctx, slog.LevelWarn, msg, toArgs(attrs)...)
}

func (l *Logger) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	l.base.Log(ctx, slog.LevelError, msg, toArgs(attrs)...)
}

func toArgs(attrs []observability.Attribute) []any {
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value)
	}
	return args
}
