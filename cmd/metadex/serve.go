package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	metahttp "github.com/fyrsmithlabs/metadex/internal/http"
	"github.com/fyrsmithlabs/metadex/internal/trigger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the lookup API over HTTP.

The index is reloaded on start (reload.on_start), on reload.schedule when
set, and when files under local repository paths change (reload.watch).

Examples:
  # Serve with the default config
  metadex serve

  # Serve on another port
  METADEX_SERVER_PORT=8080 metadex serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, logSettings{out: os.Stdout, level: logLevel})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		_ = a.close(ctx)
	}()
	log := a.logger.Underlying()

	if a.cfg.Reload.OnStart {
		if res, err := a.reload(ctx); err != nil {
			log.Error("initial reload failed", zap.Error(err))
		} else {
			log.Info("initial reload finished",
				zap.Int("records", res.Total),
				zap.Duration("took", res.Duration))
		}
	}

	srv, err := metahttp.NewServer(a.index, a.lookup, log.Named("http"), &metahttp.Config{
		Host:           a.cfg.Server.Host,
		Port:           a.cfg.Server.Port,
		ReloadInterval: a.cfg.Server.ReloadInterval.Duration(),
		ReloadBurst:    a.cfg.Server.ReloadBurst,
		Gatherer:       a.metrics,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	reload := func(ctx context.Context) error {
		_, err := a.reload(ctx)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Reload.Schedule != "" {
		sched, err := trigger.NewScheduler(a.cfg.Reload.Schedule, reload, log.Named("schedule"))
		if err != nil {
			return err
		}
		sched.Start(gctx)
	}

	if roots := watchRoots(a); len(roots) > 0 {
		w, err := trigger.NewWatcher(roots, a.cfg.Reload.Debounce.Duration(), reload, log.Named("watch"))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		log.Info("metadex listening",
			zap.String("host", a.cfg.Server.Host),
			zap.Int("port", a.cfg.Server.Port),
			zap.String("version", version))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout.Duration()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// watchRoots lists local repository paths when watching is enabled.
func watchRoots(a *app) []string {
	if !a.cfg.Reload.Watch {
		return nil
	}
	var roots []string
	for _, r := range a.cfg.Meta.Repositories {
		if r.Path != "" {
			roots = append(roots, r.Path)
		}
	}
	return roots
}
