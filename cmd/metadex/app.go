package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/config"
	"github.com/fyrsmithlabs/metadex/internal/format"
	"github.com/fyrsmithlabs/metadex/internal/index"
	"github.com/fyrsmithlabs/metadex/internal/logging"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/pages"
	"github.com/fyrsmithlabs/metadex/internal/report"
	"github.com/fyrsmithlabs/metadex/internal/repository"
	"github.com/fyrsmithlabs/metadex/internal/telemetry"
)

// app holds the services every command shares.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	metrics   *prometheus.Registry
	index     *index.Service
	lookup    *lookup.Service
}

// logSettings overrides the configured logging per command.
type logSettings struct {
	// out receives log entries. Commands that own stdout point it at stderr.
	out io.Writer
	// level replaces logging.level when set.
	level   string
	console bool
}

// newApp loads configuration and wires the services.
func newApp(ctx context.Context, ls logSettings) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	opts := index.OptionsFromConfig(cfg.Meta)
	if err := repository.CheckDistinct(opts.Sources); err != nil {
		return nil, fmt.Errorf("meta.repositories: %w", err)
	}
	if ls.level != "" {
		cfg.Logging.Level = ls.level
	}
	if ls.console {
		cfg.Logging.Format = "console"
	}

	tel := telemetry.New(ctx, cfg.Telemetry, version)

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logCfg.Output = ls.out
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("problems", h.Problems))
	}

	allow, err := report.LoadAllowlist(cfg.Meta.AllowlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading allowlist: %w", err)
	}
	redactor, err := report.NewRedactor(allow)
	if err != nil {
		return nil, fmt.Errorf("building report redactor: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	fetcher := repository.NewFetcher(cfg.Meta.WorkDir, logger.Underlying().Named("fetch"),
		repository.WithDepth(cfg.Meta.FetchDepth),
		repository.WithTimeout(cfg.Meta.FetchTimeout.Duration()),
	)
	store := pages.NewStore(cfg.Pages.MaxSessions, cfg.Pages.SessionTTL.Duration())
	formatter := format.New(format.Limits{
		ListBudget: cfg.Pages.ListPageSize,
		Separator:  cfg.Pages.Separator,
	})

	a := &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		metrics:   promReg,
	}
	a.index = index.NewService(meta.NewBuiltinRegistry(), fetcher,
		report.NewWriter(cfg.Meta.ReportPath, report.Mode(cfg.Meta.ReportMode), redactor),
		opts,
		index.WithLogger(logger.Named("index")),
		index.WithMetrics(index.NewMetrics(promReg)),
		index.WithTracer(tel.Tracer("github.com/fyrsmithlabs/metadex/internal/index")),
		// Sessions hold pages of the old generation.
		index.WithReloadHook(func(*index.Result) { a.lookup.Purge() }),
	)
	a.lookup = lookup.New(a.index, formatter, store)
	return a, nil
}

// reload runs one reload and logs its summary.
func (a *app) reload(ctx context.Context) (*index.Result, error) {
	res, err := a.index.Reload(ctx)
	if err != nil {
		return nil, err
	}
	if res.ReportError != "" {
		a.logger.Warn(ctx, "reload report not written", zap.String("error", res.ReportError))
	}
	return res, nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.logger.Sync(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
