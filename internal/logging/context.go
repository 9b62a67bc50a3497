package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	traceKey
)

// trace identifies the span currently active on a context.
type trace struct {
	traceID string
	spanID  string
}

// WithLogger stores logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// TraceIDFromContext returns the trace identifier of the active span, if any.
func TraceIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).traceID
}

// SpanIDFromContext returns the identifier of the active span, if any.
func SpanIDFromContext(ctx context.Context) string {
	return traceFromContext(ctx).spanID
}

func traceFromContext(ctx context.Context) trace {
	if ctx == nil {
		return trace{}
	}
	t, _ := ctx.Value(traceKey).(trace)
	return t
}

func withTrace(ctx context.Context, t trace) context.Context {
	return context.WithValue(ctx, traceKey, t)
}
