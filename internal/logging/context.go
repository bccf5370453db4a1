package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type reloadCtxKey struct{}
type requestCtxKey struct{}
type loggerCtxKey struct{}

// Field keys added from the context.
const (
	reloadIDKey  = "reload_id"
	requestIDKey = "request_id"
)

// ContextFields extracts correlation data from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := ReloadIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(reloadIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(requestIDKey, id))
	}
	return fields
}

// WithReloadID tags ctx with the id of the reload in progress.
func WithReloadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reloadCtxKey{}, id)
}

func ReloadIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(reloadCtxKey{}).(string)
	return id
}

// WithRequestID tags ctx with an inbound request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestCtxKey{}).(string)
	return id
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return Nop()
}
