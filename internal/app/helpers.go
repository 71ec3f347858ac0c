package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/logx"
	"service-dispatch/internal/repository"
)

var (
	newPool = repository.NewPool
	migrate = repository.Migrate
)

func connectDbWithRetry(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error) {
	var lastErr error
	const attemptTimeout = 3 * time.Second
	for i := 1; i <= retries; i++ {
		retriesCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		pool, err := newPool(retriesCtx, dsn)
		cancel()
		if err == nil {
			logger.Info("db connected", logx.Int("attempt", i))
			return pool, nil
		}
		lastErr = err
		logger.Warn("db connect failed", logx.Int("attempt", i), logx.Int("retries", retries), logx.Err(err))
		if i < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("db connect failed after %d attempts: %w", retries, lastErr)
}

// openDatabase connects with retries and brings the schema up to date.
func openDatabase(
	ctx context.Context,
	logger logx.Logger,
	dsn string,
	connect func(context.Context, logx.Logger, string, int, time.Duration) (*pgxpool.Pool, error),
) (*pgxpool.Pool, error) {
	pool, err := connect(ctx, logger, dsn, 10, time.Second)
	if err != nil {
		return nil, err
	}
	if err := migrate(dsn); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("db migrations applied")
	return pool, nil
}
