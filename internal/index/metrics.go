package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for reloads and searches.
//
// Metrics:
//   - metadex_reloads_total{result} - reloads by outcome
//   - metadex_reload_duration_seconds - reload latency
//   - metadex_records{type} - records per type in the published generation
//   - metadex_reload_warnings - report entries of the last reload
//   - metadex_fetch_failures_total - repositories skipped after a failed fetch
//   - metadex_index_generation - generation number currently served
//   - metadex_searches_total{type,level} - searches by best match level
type Metrics struct {
	ReloadsTotal       *prometheus.CounterVec
	ReloadDuration     prometheus.Histogram
	Records            *prometheus.GaugeVec
	ReloadWarnings     prometheus.Gauge
	FetchFailuresTotal prometheus.Counter
	Generation         prometheus.Gauge
	SearchesTotal      *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg uses the default
// registerer, which allows one call per process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ReloadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metadex_reloads_total",
			Help: "Total number of reloads by result",
		}, []string{"result"}),
		ReloadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "metadex_reload_duration_seconds",
			Help:    "Duration of full reloads in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "metadex_records",
			Help: "Records per type in the published generation",
		}, []string{"type"}),
		ReloadWarnings: f.NewGauge(prometheus.GaugeOpts{
			Name: "metadex_reload_warnings",
			Help: "Report entries produced by the last reload",
		}),
		FetchFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "metadex_fetch_failures_total",
			Help: "Repositories skipped because fetching failed",
		}),
		Generation: f.NewGauge(prometheus.GaugeOpts{
			Name: "metadex_index_generation",
			Help: "Generation number of the published index",
		}),
		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metadex_searches_total",
			Help: "Searches by type and best match level",
		}, []string{"type", "level"}),
	}
}
