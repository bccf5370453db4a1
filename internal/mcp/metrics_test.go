package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// points flattens an int64 sum into "attr=value,..." -> count.
func points(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				out[dp.Attributes.Encoded(attribute.DefaultEncoder())] += dp.Value
			}
		}
	}
	return out
}

func collect(t *testing.T, reader *metric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func testMetrics(t *testing.T) (*Metrics, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return newMetrics(mp.Meter(instrumentationName), zap.NewNop()), reader
}

func TestMetrics_Start(t *testing.T) {
	m, reader := testMetrics(t)
	ctx := context.Background()

	m.Start(ctx, toolSearch)(nil)
	m.Start(ctx, toolSearch)(fmt.Errorf("search failed: %w", meta.ErrUnknownType))
	pending := m.Start(ctx, toolReload)

	rm := collect(t, reader)
	assert.Equal(t, map[string]int64{
		"outcome=ok,tool=meta_search":           1,
		"outcome=unknown_type,tool=meta_search": 1,
	}, points(t, rm, "metadex.mcp.tool.calls"))
	assert.Equal(t, int64(1), points(t, rm, "metadex.mcp.tool.inflight")["tool=meta_reload"])

	pending(nil)
	rm = collect(t, reader)
	assert.Equal(t, int64(0), points(t, rm, "metadex.mcp.tool.inflight")["tool=meta_reload"])
}

func TestMetrics_Answer(t *testing.T) {
	m, reader := testMetrics(t)
	ctx := context.Background()

	m.Answer(ctx, toolSearch, lookup.KindRecord)
	m.Answer(ctx, toolSearch, lookup.KindNone)
	m.Answer(ctx, toolList, lookup.KindList)
	m.Answer(ctx, toolList, lookup.KindList)

	got := points(t, collect(t, reader), "metadex.mcp.answers")
	assert.Equal(t, int64(1), got["kind=record,tool=meta_search"])
	assert.Equal(t, int64(1), got["kind=none,tool=meta_search"])
	assert.Equal(t, int64(2), got["kind=list,tool=meta_list"])
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"unknown type", fmt.Errorf("search failed: %w", meta.ErrUnknownType), "unknown_type"},
		{"empty query", fmt.Errorf("search failed: %w", lookup.ErrEmptyQuery), "invalid_input"},
		{"canceled", fmt.Errorf("reload failed: %w", context.Canceled), "canceled"},
		{"other", errors.New("disk on fire"), "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcome(tt.err))
		})
	}
}
