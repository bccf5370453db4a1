package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func fieldMap(ctx context.Context) map[string]string {
	out := map[string]string{}
	for _, f := range ContextFields(ctx) {
		out[f.Key] = f.String
	}
	return out
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	ctx := WithRequestID(WithReloadID(context.Background(), "r-9"), "q-1")
	fields := fieldMap(ctx)
	assert.Equal(t, "r-9", fields["reload_id"])
	assert.Equal(t, "q-1", fields["request_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestContextFields_Trace(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := fieldMap(ctx)
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "hello")
	tl.AssertLogged(t, 0, "hello")
}
