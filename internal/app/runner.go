package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"service-dispatch/internal/dispatch"
	"service-dispatch/internal/jobs"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// MustRun starts the API process using the provided DI container
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

type runIn struct {
	dig.In

	Ctx       context.Context
	Logger    logx.Logger
	Server    *http.Server
	Pool      *pgxpool.Pool
	Engine    *dispatch.Engine
	Scheduler *jobs.Scheduler
	Consumer  *kafka.Consumer
	Redis     *redis.Client
	Broker    *live.RedisBroker
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

// serve runs every background loop under one errgroup; the first failure
// cancels the rest and triggers shutdown.
func serve(in runIn) error {
	defer closeResources(in)

	g, ctx := errgroup.WithContext(in.Ctx)

	g.Go(func() error {
		in.Logger.Info("service-dispatch listening", logx.String("addr", in.Server.Addr))
		if err := in.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		in.Logger.Info("shutting down service-dispatch")
		gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
		return nil
	})
	g.Go(func() error { return in.Scheduler.Run(ctx) })
	if in.Consumer != nil {
		g.Go(func() error { return in.Consumer.Run(ctx) })
	}
	if in.Broker != nil {
		g.Go(func() error { return in.Broker.Run(ctx) })
	}

	err := g.Wait()
	if err == nil {
		return in.Ctx.Err()
	}
	return err
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
	}
}

func closeResources(in runIn) {
	if in.Engine != nil {
		in.Engine.Close()
	}
	if in.Consumer != nil {
		if err := in.Consumer.Close(); err != nil {
			in.Logger.Error("kafka close error", logx.Err(err))
		}
	}
	if in.Redis != nil {
		if err := in.Redis.Close(); err != nil {
			in.Logger.Error("redis close error", logx.Err(err))
		}
	}
	if in.Pool != nil {
		in.Pool.Close()
	}
}
