// Package trigger starts reloads from outside the request path: on a cron
// schedule and when watched local sources change.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReloadFunc rebuilds the index.
type ReloadFunc func(ctx context.Context) error

// Scheduler runs a reload on a cron schedule. A tick that arrives while the
// previous reload is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	reload   ReloadFunc
	logger   *zap.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler parses spec (standard five-field cron or a descriptor such as
// "@every 1h") and returns a stopped scheduler.
func NewScheduler(spec string, reload ReloadFunc, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reload schedule %q: %w", spec, err)
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		reload:   reload,
		logger:   logger,
		ctx:      context.Background(),
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.run))
	return s, nil
}

// Start begins ticking. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("reload schedule started", zap.Time("next", s.Next()))
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the schedule and waits for a running reload to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next is when the next reload is due.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(time.Now())
}

func (s *Scheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := s.reload(ctx); err != nil {
		s.logger.Error("scheduled reload failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled reload finished", zap.Duration("took", time.Since(start)))
}
