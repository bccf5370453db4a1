package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/metadex/internal/http"

// requestMetrics records every API request by route, method and status
// class. Pages are small, so response size mostly tracks list length.
type requestMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	size     metric.Int64Histogram
	inflight metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter, logger *zap.Logger) *requestMetrics {
	m, err := buildRequestMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("http metrics disabled", zap.Error(err))
		}
		m, _ = buildRequestMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return m
}

func buildRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	var m requestMetrics
	var errs [4]error
	m.requests, errs[0] = meter.Int64Counter("metadex.http.requests",
		metric.WithDescription("API requests by route and status class"),
		metric.WithUnit("{request}"))
	m.latency, errs[1] = meter.Float64Histogram("metadex.http.duration",
		metric.WithDescription("API request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30))
	m.size, errs[2] = meter.Int64Histogram("metadex.http.response_size",
		metric.WithDescription("API response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(256, 1024, 4096, 16384, 65536, 262144))
	m.inflight, errs[3] = meter.Int64UpDownCounter("metadex.http.inflight",
		metric.WithDescription("API requests in progress"),
		metric.WithUnit("{request}"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *requestMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inflight.Add(ctx, 1)
			defer m.inflight.Add(ctx, -1)

			err := next(c)

			res := c.Response()
			attrs := metric.WithAttributes(
				attribute.String("route", routeLabel(c.Path())),
				attribute.String("method", c.Request().Method),
				attribute.String("status_class", statusClass(res.Status)),
			)
			m.requests.Add(ctx, 1, attrs)
			m.latency.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, res.Size, attrs)
			return err
		}
	}
}

// routeLabel is the matched pattern, such as /api/v1/pages/:id, so session
// ids and queries never become label values.
func routeLabel(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}

// statusClass folds a status code to 2xx, 4xx and so on.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
