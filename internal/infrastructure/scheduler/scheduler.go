package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bibbank/mfi-repayment/internal/application/dto"
)

// OverdueSweeper is satisfied by usecase.OverdueSweepUseCase.
type OverdueSweeper interface {
	Execute(ctx context.Context, asOf time.Time) (dto.OverdueSweepResult, error)
}

// Scheduler runs periodic jobs on a cron spec in UTC.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time

	// jobs is the parent of every job context; Run cancels it on shutdown.
	jobs       context.Context
	cancelJobs context.CancelFunc
}

// New creates a scheduler. A run still in progress when the next one is due
// causes that next run to be skipped.
func New(logger *slog.Logger, timeout time.Duration) *Scheduler {
	cl := cronLogger{logger: logger}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	jobs, cancelJobs := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,

		jobs:       jobs,
		cancelJobs: cancelJobs,
	}
}

// AddOverdueSweep registers the sweep on spec.
func (s *Scheduler) AddOverdueSweep(spec string, sweeper OverdueSweeper) error {
	_, err := s.cron.AddFunc(spec, func() { s.runSweep(sweeper) })
	if err != nil {
		return fmt.Errorf("schedule overdue sweep %q: %w", spec, err)
	}
	s.logger.Info("overdue sweep scheduled", "spec", spec)
	return nil
}

func (s *Scheduler) runSweep(sweeper OverdueSweeper) {
	ctx, cancel := context.WithTimeout(s.jobs, s.timeout)
	defer cancel()

	res, err := sweeper.Execute(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return
	}
	if res.Failed > 0 {
		s.logger.Warn("overdue sweep finished with failures", "failed", res.Failed, "scanned", res.Scanned)
	}
}

// Run starts the scheduler and blocks until ctx ends, then cancels running
// jobs and waits for them to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	s.cancelJobs()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
