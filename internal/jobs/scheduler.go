package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"service-dispatch/internal/logx"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs jobs on fixed intervals. A run is skipped while the previous
// run of the same job is still in progress.
type Scheduler struct {
	cron    *cron.Cron
	logger  logx.Logger
	timeout time.Duration
	ctx     context.Context
}

// NewScheduler creates a Scheduler; every run gets at most timeout.
func NewScheduler(logger logx.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		logger:  logger,
		timeout: timeout,
		ctx:     context.Background(),
	}
}

// Every registers job under name to run every interval.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	logger := s.logger.With(logx.String("job", name))
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx := s.ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		if err := job(ctx); err != nil {
			logger.Error("job failed", logx.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	logger.Info("job scheduled", logx.Duration("interval", interval))
	return nil
}

// Run starts the schedule and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", logx.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

type cronLogger struct {
	l logx.Logger
}

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug(msg, fields(kv)...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, append(fields(kv), logx.Err(err))...)
}

func fields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
