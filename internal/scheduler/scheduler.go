package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "FolioPull/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. A job still running when its next
// tick fires is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *applogger.Logger
}

func New(l *applogger.Logger) *Scheduler {
	l = l.With(applogger.String("component", "scheduler"))
	ctx, cancel := context.WithCancel(context.Background())
	adapter := applogger.CronAdapter{L: l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		ctx:    ctx,
		cancel: cancel,
		log:    l,
	}
}

// Every returns the cron expression for a fixed interval.
func Every(d time.Duration) string {
	return "@every " + d.String()
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for jobs: %w", ctx.Err())
	}
}

// AddJob registers job on schedule, e.g. "@every 15m" or "*/5 * * * *".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.log.Info("job registered", applogger.String("job", job.Name()), applogger.String("schedule", schedule))
	return nil
}

// RunNow executes job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("running job immediately", applogger.String("job", job.Name()))
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		s.log.Error("job failed", applogger.String("job", job.Name()), applogger.Error(err))
		return
	}
	s.log.Debug("job completed", applogger.String("job", job.Name()), applogger.Duration("took", time.Since(start)))
}
