package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/metadex/internal/logging"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/parser"
	"github.com/fyrsmithlabs/metadex/internal/report"
	"github.com/fyrsmithlabs/metadex/internal/repository"
)

// Result summarizes one completed reload.
type Result struct {
	ID            string           `json:"id"`
	Generation    uint64           `json:"generation"`
	Started       time.Time        `json:"started"`
	Duration      time.Duration    `json:"duration"`
	Counts        []meta.TypeCount `json:"counts"`
	Total         int              `json:"total"`
	Files         int              `json:"files"`
	Warnings      int              `json:"warnings"`
	FetchFailures int              `json:"fetch_failures"`
	// ReportError is set when the report could not be written; the index
	// was still published.
	ReportError string `json:"report_error,omitempty"`

	Report *report.Report `json:"-"`
}

// job is one file to parse.
type job struct {
	path      string
	delimiter string
}

// Reload rebuilds the whole index and publishes it atomically. Concurrent
// calls run one after another. Per-file and per-repository problems go to
// the report; only cancellation aborts, leaving the previous generation in
// place.
func (s *Service) Reload(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ctx = logging.WithReloadID(ctx, id)
	ctx, span := s.tracer.Start(ctx, "index.reload")
	defer span.End()

	start := time.Now()
	res, err := s.reload(ctx, id, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.metrics != nil {
			s.metrics.ReloadsTotal.WithLabelValues("failure").Inc()
		}
		s.logger.Error(ctx, "reload failed", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("meta.generation", int64(res.Generation)),
		attribute.Int("meta.records", res.Total),
		attribute.Int("meta.warnings", res.Warnings),
	)
	s.observe(res)
	s.last.Store(res)
	s.logger.Info(ctx, "reload finished",
		zap.Uint64("generation", res.Generation),
		zap.Int("records", res.Total),
		zap.Int("files", res.Files),
		zap.Int("warnings", res.Warnings),
		zap.Int("fetch_failures", res.FetchFailures),
		zap.Duration("took", res.Duration),
	)
	for _, fn := range s.onReload {
		fn(res)
	}
	return res, nil
}

func (s *Service) reload(ctx context.Context, id string, start time.Time) (*Result, error) {
	if err := repository.CheckDistinct(s.opts.Sources); err != nil {
		return nil, err
	}
	if s.opts.CleanOnStart && !s.cleaned {
		if err := s.fetcher.Clean(); err != nil {
			return nil, err
		}
		s.cleaned = true
	}

	rep := report.New(id, start)

	dirs, err := s.fetchAll(ctx, rep)
	if err != nil {
		return nil, err
	}
	jobs := s.collect(ctx, dirs, rep)
	parsed, err := s.parseAll(ctx, jobs)
	if err != nil {
		return nil, err
	}

	b := s.registry.NewBuilder()
	for i, pr := range parsed {
		if pr.err != nil {
			rep.AddReadFailure(jobs[i].path, pr.err)
			continue
		}
		for _, rec := range pr.result.Records {
			if err := b.Add(rec); err != nil {
				s.logger.Warn(ctx, "record rejected", zap.String("file", jobs[i].path), zap.Error(err))
			}
		}
		rep.AddWarnings(pr.result.Warnings)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := b.Publish()

	res := &Result{
		ID:            id,
		Generation:    snap.Generation(),
		Started:       start,
		Duration:      time.Since(start),
		Counts:        snap.Counts(),
		Total:         snap.Total(),
		Files:         len(jobs),
		Warnings:      rep.Len(),
		FetchFailures: rep.Count(report.KindFetchFailure),
		Report:        rep,
	}
	if s.sink != nil {
		if err := s.sink.Write(rep); err != nil {
			res.ReportError = err.Error()
			s.logger.Warn(ctx, "writing reload report", zap.Error(err))
		}
	}
	return res, nil
}

// fetchAll fetches sources concurrently and returns their directories in
// source order. Failed sources get an empty entry and a report line.
func (s *Service) fetchAll(ctx context.Context, rep *report.Report) ([]string, error) {
	dirs := make([]string, len(s.opts.Sources))
	errs := make([]error, len(s.opts.Sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FetchConcurrency)
	for i, src := range s.opts.Sources {
		g.Go(func() error {
			dir, err := s.fetcher.Fetch(gctx, src)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			dirs[i] = dir
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		src := s.opts.Sources[i]
		rep.AddFetchFailure(src.String(), err)
		s.logger.Warn(ctx, "skipping repository", zap.Stringer("repository", src), zap.Error(err))
	}
	return dirs, nil
}

// collect walks the fetched directories and lists files to parse, in
// source order then lexical order. A directory shared by two sources is
// read once.
func (s *Service) collect(ctx context.Context, dirs []string, rep *report.Report) []job {
	delims := make(map[string]string, len(s.opts.Files))
	exts := make([]string, 0, len(s.opts.Files))
	for _, f := range s.opts.Files {
		ext := strings.ToLower(strings.TrimPrefix(f.Extension, "."))
		if _, dup := delims[ext]; dup {
			continue
		}
		delims[ext] = f.Delimiter
		exts = append(exts, ext)
	}

	seen := make(map[string]bool)
	var jobs []job
	for i, dir := range dirs {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true

		walked, err := repository.Walk(ctx, dir, exts, s.opts.MaxFileSize)
		if err != nil {
			rep.AddFetchFailure(s.opts.Sources[i].String(), fmt.Errorf("walking %s: %w", dir, err))
			continue
		}
		for _, f := range walked.Oversize {
			rep.AddOversize(f.Path, f.Size, s.opts.MaxFileSize)
		}
		for _, f := range walked.Files {
			jobs = append(jobs, job{path: f.Path, delimiter: delims[strings.ToLower(f.Ext)]})
		}
	}
	return jobs
}

type parsed struct {
	result *parser.Result
	err    error
}

// parseAll parses jobs concurrently. Results keep job order so the
// published records and report are deterministic.
func (s *Service) parseAll(ctx context.Context, jobs []job) ([]parsed, error) {
	out := make([]parsed, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.ParseConcurrency)
	for i, j := range jobs {
		g.Go(func() error {
			res, err := s.parser.ParseFile(gctx, j.path, j.delimiter)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			out[i] = parsed{result: res, err: err}
			if err == nil {
				s.logger.Trace(gctx, "parsed file",
					zap.String("file", j.path),
					zap.Int("records", len(res.Records)),
					zap.Int("warnings", len(res.Warnings)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) observe(res *Result) {
	if s.metrics == nil {
		return
	}
	m := s.metrics
	m.ReloadsTotal.WithLabelValues("success").Inc()
	m.ReloadDuration.Observe(res.Duration.Seconds())
	m.ReloadWarnings.Set(float64(res.Warnings))
	m.FetchFailuresTotal.Add(float64(res.FetchFailures))
	m.Generation.Set(float64(res.Generation))
	for _, c := range res.Counts {
		m.Records.WithLabelValues(c.Type).Set(float64(c.Count))
	}
}
