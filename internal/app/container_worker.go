package app

import (
	"context"
	"fmt"

	"go.uber.org/dig"

	"service-dispatch/internal/config"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/reaper"
)

// MustBuildWorker builds the container for the standalone sweeper process.
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container := dig.New()
	steps := []struct {
		name string
		fn   func(*dig.Container) error
	}{
		{"core", func(c *dig.Container) error { return registerCore(c, ctx) }},
		{"DB", func(c *dig.Container) error { return registerDb(c, b.dbConnect) }},
		{"metrics", registerMetrics},
		{"live", registerLive},
		{"jobs", registerWorkerJobs},
	}
	for _, s := range steps {
		if err := s.fn(container); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return container, nil
}

// MustBuildWorkerContainer builds the worker container with default settings.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

// The worker holds no dispatch sessions, so the reaper only cancels and notifies.
func newWorkerReaper(
	cfg *config.Config,
	repo *repository.OrderRepo,
	pub live.Publisher,
	logger logx.Logger,
	m *metrics.Dispatch,
) *reaper.Reaper {
	return reaper.New(repo, nil, pub, cfg.Reaper.StaleAfter, logger.With(logx.String("component", "reaper")), m)
}

func registerWorkerJobs(container *dig.Container) error {
	return provideAll(container, newWorkerReaper, newScheduler)
}
