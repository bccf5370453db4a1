package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fyrsmithlabs/metadex/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel := New(context.Background(), config.Default().Telemetry, "test")

	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NotNil(t, tel.LoggerProvider())
	assert.Equal(t, HealthStatus{}, tel.Health())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_EnabledLazyExporters(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.Enabled = true
	cfg.MetricsEnabled = true
	cfg.Insecure = true

	// OTLP exporters connect lazily, so construction succeeds without a collector.
	tel := New(context.Background(), cfg, "test")
	assert.True(t, tel.Health().Enabled)
	assert.False(t, tel.Health().Degraded)
	assert.NotNil(t, tel.traces)
	assert.NotNil(t, tel.metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tel.Shutdown(ctx)
	assert.NoError(t, tel.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestNewResource(t *testing.T) {
	cfg := config.Default().Telemetry
	res := newResource(cfg, "1.2.3")

	attrs := map[string]string{}
	for _, a := range res.Attributes() {
		attrs[string(a.Key)] = a.Value.AsString()
	}
	assert.Equal(t, "metadex", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("collector:4318"))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1).Description())
	assert.Equal(t, "AlwaysOnSampler", sampler(2).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Equal(t, "TraceIDRatioBased{0.25}", sampler(0.25).Description())
}

func TestHealth_RecordsProblems(t *testing.T) {
	tel := &Telemetry{enabled: true}
	tel.problem("metrics", errors.New("dial refused"))

	h := tel.Health()
	assert.True(t, h.Degraded)
	assert.Equal(t, []string{"metrics: dial refused"}, h.Problems)
	assert.Equal(t, HealthStatus{}, (*Telemetry)(nil).Health())
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("metadex/test").Start(ctx, "reload")
	span.SetAttributes(attribute.Int("meta.records", 3), attribute.String("meta.type", "command"))
	span.End()
	tt.AssertSpanExists(t, "reload")
	tt.AssertSpanAttribute(t, "reload", "meta.records", int64(3))
	tt.AssertSpanAttribute(t, "reload", "meta.type", "command")

	counter, err := tt.Meter("metadex/test").Int64Counter("metadex.test.count")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	m, ok := tt.Metric(ctx, "metadex.test.count")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	_, ok = tt.Metric(ctx, "metadex.missing")
	assert.False(t, ok)
}
