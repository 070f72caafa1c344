package logger

import (
	"context"
	"log/slog"
)

type requestLoggerKey struct{}

// With derives a logger carrying fields and binds it to ctx. The request
// middleware uses it to stamp trace_id and actor_id on every line logged
// while serving a request.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, requestLoggerKey{}, From(ctx).With(fields...))
}

// From returns the logger bound to ctx, or the process logger.
func From(ctx context.Context) *slog.Logger {
	return FromOr(ctx, LoggerWrapper())
}

// FromOr returns the logger bound to ctx, or fallback when none is bound.
func FromOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(requestLoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}
