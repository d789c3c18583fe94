// Package ctxlog carries a scoped slog.Logger through a context.
package ctxlog

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// From returns the logger stored in ctx, or slog.Default when there is none.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// With returns a copy of ctx carrying logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithAttrs returns a copy of ctx whose logger also emits args.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return With(ctx, From(ctx).With(args...))
}
