package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/metadex/internal/config"
)

// Telemetry owns the trace and metric pipelines. A nil *Telemetry, a
// disabled one and one whose exporters failed all hand out the global
// providers.
type Telemetry struct {
	enabled bool
	traces  *trace.TracerProvider
	metrics *sdkmetric.MeterProvider

	mu       sync.Mutex
	problems []string
	closed   bool
}

// New builds the pipelines cfg asks for and installs them globally.
func New(ctx context.Context, cfg config.TelemetryConfig, version string) *Telemetry {
	t := &Telemetry{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return t
	}
	res := newResource(cfg, version)

	if tp, err := tracerProvider(ctx, cfg, res); err != nil {
		t.problem("traces", err)
	} else {
		t.traces = tp
		otel.SetTracerProvider(tp)
	}
	if cfg.MetricsEnabled {
		if mp, err := meterProvider(ctx, cfg, res); err != nil {
			t.problem("metrics", err)
		} else {
			t.metrics = mp
			otel.SetMeterProvider(mp)
		}
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t
}

func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.traces == nil {
		return otel.Tracer(name, opts...)
	}
	return t.traces.Tracer(name, opts...)
}

func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.metrics == nil {
		return otel.Meter(name, opts...)
	}
	return t.metrics.Meter(name, opts...)
}

// LoggerProvider feeds the otelzap bridge. Log export has no pipeline of
// its own, so this is always the global provider.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	return global.GetLoggerProvider()
}

// Shutdown flushes pending spans and metrics. Later calls do nothing.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	var errs []error
	if t.traces != nil {
		if err := t.traces.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	if t.metrics != nil {
		if err := t.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HealthStatus reports whether export is on and which pipelines failed.
type HealthStatus struct {
	Enabled  bool     `json:"enabled"`
	Degraded bool     `json:"degraded"`
	Problems []string `json:"problems,omitempty"`
}

func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return HealthStatus{
		Enabled:  t.enabled,
		Degraded: len(t.problems) > 0,
		Problems: append([]string(nil), t.problems...),
	}
}

func (t *Telemetry) problem(pipeline string, err error) {
	t.mu.Lock()
	t.problems = append(t.problems, fmt.Sprintf("%s: %v", pipeline, err))
	t.mu.Unlock()
}
