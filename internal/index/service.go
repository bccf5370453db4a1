package index

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/config"
	"github.com/fyrsmithlabs/metadex/internal/logging"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/parser"
	"github.com/fyrsmithlabs/metadex/internal/report"
	"github.com/fyrsmithlabs/metadex/internal/repository"
)

const instrumentationName = "github.com/fyrsmithlabs/metadex/internal/index"

// Fetcher materializes a source on local disk.
type Fetcher interface {
	Fetch(ctx context.Context, src repository.Source) (string, error)
	Clean() error
}

// ReportSink persists the report of each reload.
type ReportSink interface {
	Write(r *report.Report) error
}

// Options controls what a reload reads.
type Options struct {
	Sources []repository.Source
	// Files maps extensions to comment delimiters.
	Files            []config.FileConfig
	MaxFileSize      int64
	FetchConcurrency int
	ParseConcurrency int
	CleanOnStart     bool
}

// OptionsFromConfig builds reload options from the meta section.
func OptionsFromConfig(cfg config.MetaConfig) Options {
	return Options{
		Sources:          repository.SourcesFromConfig(cfg.Repositories),
		Files:            cfg.Files,
		MaxFileSize:      cfg.MaxFileSize,
		FetchConcurrency: cfg.FetchConcurrency,
		ParseConcurrency: cfg.ParseConcurrency,
		CleanOnStart:     cfg.CleanOnStart,
	}
}

// Service owns reloads of a registry and the lookups against it.
type Service struct {
	registry *meta.Registry
	parser   *parser.Parser
	fetcher  Fetcher
	sink     ReportSink
	opts     Options

	logger   *logging.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	onReload []func(*Result)

	mu      sync.Mutex
	cleaned bool
	last    atomic.Pointer[Result]
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithReloadHook runs fn after every successful publish.
func WithReloadHook(fn func(*Result)) Option {
	return func(s *Service) { s.onReload = append(s.onReload, fn) }
}

// NewService returns a service over reg. sink may be nil.
func NewService(reg *meta.Registry, fetcher Fetcher, sink ReportSink, opts Options, options ...Option) *Service {
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	if opts.ParseConcurrency <= 0 {
		opts.ParseConcurrency = 8
	}
	s := &Service{
		registry: reg,
		parser:   parser.New(reg),
		fetcher:  fetcher,
		sink:     sink,
		opts:     opts,
		logger:   logging.Nop(),
	}
	for _, o := range options {
		o(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}
	return s
}

func (s *Service) Registry() *meta.Registry { return s.registry }

// LastReload returns the result of the most recent successful reload.
func (s *Service) LastReload() *Result { return s.last.Load() }

// Types lists registered type names in registration order.
func (s *Service) Types() []string { return s.registry.Types() }

// Counts returns per-type record counts of the published generation.
func (s *Service) Counts() []meta.TypeCount { return s.registry.Counts() }

// AllOf returns every record of typ from the published generation.
func (s *Service) AllOf(typ string) ([]*meta.Record, error) {
	return s.registry.AllOf(strings.ToLower(typ))
}

// Search scores the published generation and returns matches best first.
func (s *Service) Search(ctx context.Context, typ, query string) ([]meta.Result, error) {
	typ = strings.ToLower(typ)
	ctx, span := s.tracer.Start(ctx, "index.search", trace.WithAttributes(
		attribute.String("meta.type", typ),
		attribute.String("meta.query", query),
	))
	defer span.End()

	start := time.Now()
	results, err := s.registry.Search(typ, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	meta.SortResults(results)

	best := meta.Best(results)
	span.SetAttributes(attribute.Int("meta.results", len(results)), attribute.String("meta.best", best.String()))
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(typ, best.String()).Inc()
	}
	s.logger.Debug(ctx, "search",
		zap.String("type", typ),
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Stringer("best", best),
		zap.Duration("took", time.Since(start)),
	)
	return results, nil
}
