package slogx

import (
	"context"
	"log/slog"
)

type ctxKey uint8

const (
	loggerKey ctxKey = iota
	requestIDKey
)

// WithContext stores logger in ctx. Handlers and middleware below
// HTTPMiddleware find the request logger through FromContext.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext never returns nil. Outside a request it is slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// With returns a copy of ctx whose logger carries args as extra attributes.
func With(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// RequestIDFrom returns the id HTTPMiddleware assigned, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
