package trace

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithID returns a copy of ctx carrying id. An empty id clears the trace.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the trace ID carried by ctx
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// EnsureContext returns ctx unchanged when it already carries a trace ID,
// otherwise a child context with a new one.
func EnsureContext(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	id := NewID()
	return WithID(ctx, id), id
}

// Logger returns logger annotated with the trace ID from ctx, or logger
// itself when ctx has none.
func Logger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id, ok := FromContext(ctx); ok {
		return logger.With(FieldTraceID, id)
	}
	return logger
}
