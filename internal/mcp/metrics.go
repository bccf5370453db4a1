package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

const instrumentationName = "github.com/fyrsmithlabs/metadex/internal/mcp"

// Metrics instruments tool calls and the answers lookups produce.
//
//   - metadex.mcp.tool.calls    calls by tool and outcome ("ok" or a failure reason)
//   - metadex.mcp.tool.duration call latency by tool
//   - metadex.mcp.tool.inflight calls currently running
//   - metadex.mcp.answers       lookup answers by tool and kind (record, results, list, none)
type Metrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
	answers  metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	return newMetrics(otel.Meter(instrumentationName), logger)
}

// newMetrics falls back to no-op instruments if meter rejects any of them,
// so recording never needs nil checks.
func newMetrics(meter metric.Meter, logger *zap.Logger) *Metrics {
	m, err := buildMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("mcp metrics disabled", zap.Error(err))
		}
		m, _ = buildMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var errs [4]error
	m.calls, errs[0] = meter.Int64Counter("metadex.mcp.tool.calls",
		metric.WithDescription("MCP tool calls by outcome"),
		metric.WithUnit("{call}"))
	// Lookups take milliseconds, reloads can take minutes.
	m.duration, errs[1] = meter.Float64Histogram("metadex.mcp.tool.duration",
		metric.WithDescription("MCP tool call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.025, 0.1, 0.5, 2, 10, 60, 300))
	m.inflight, errs[2] = meter.Int64UpDownCounter("metadex.mcp.tool.inflight",
		metric.WithDescription("MCP tool calls in progress"),
		metric.WithUnit("{call}"))
	m.answers, errs[3] = meter.Int64Counter("metadex.mcp.answers",
		metric.WithDescription("Lookup answers returned over MCP by kind"),
		metric.WithUnit("{answer}"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

// Start marks a call of tool as in flight. Call the returned func with the
// call's error once it returns.
func (m *Metrics) Start(ctx context.Context, tool string) func(err error) {
	start := time.Now()
	toolAttr := metric.WithAttributes(attribute.String("tool", tool))
	m.inflight.Add(ctx, 1, toolAttr)
	return func(err error) {
		m.inflight.Add(ctx, -1, toolAttr)
		m.duration.Record(ctx, time.Since(start).Seconds(), toolAttr)
		m.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("outcome", outcome(err)),
		))
	}
}

// Answer counts one lookup answer.
func (m *Metrics) Answer(ctx context.Context, tool string, kind lookup.Kind) {
	m.answers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("kind", string(kind)),
	))
}

// outcome maps an error to a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, meta.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, lookup.ErrEmptyQuery):
		return "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal_error"
	}
}
