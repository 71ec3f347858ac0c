package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/jobs"
	"service-dispatch/internal/logx"
)

// WorkerRunner runs the stale order sweeper
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the sweeper using the provided DI container
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger logx.Logger,
	scheduler *jobs.Scheduler,
	client *redis.Client,
) error {
	if scheduler == nil {
		return fmt.Errorf("scheduler is nil: worker container misconfigured")
	}
	defer closeWorker(pool, logger, client)

	logger.Info("service-dispatch-worker started")
	return scheduler.Run(ctx)
}

func closeWorker(pool *pgxpool.Pool, logger logx.Logger, client *redis.Client) {
	if client != nil {
		if err := client.Close(); err != nil {
			logger.Error("redis close error", logx.Err(err))
		}
	}
	if pool != nil {
		pool.Close()
	}
}
