package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/config"
	"service-dispatch/internal/dispatch"
	"service-dispatch/internal/http/handlers"
	mw "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/http/router"
	"service-dispatch/internal/jobs"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
	"service-dispatch/internal/repository"
	"service-dispatch/internal/service/courier"
	"service-dispatch/internal/service/delivery"
	"service-dispatch/internal/service/orders"
	"service-dispatch/internal/service/reaper"
	"service-dispatch/internal/transport/kafka"
	"service-dispatch/internal/transport/ws"
)

type dbConnectFunc func(context.Context, logx.Logger, string, int, time.Duration) (*pgxpool.Pool, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect dbConnectFunc
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	steps := []struct {
		name string
		fn   func(*dig.Container) error
	}{
		{"core", func(c *dig.Container) error { return registerCore(c, ctx) }},
		{"DB", func(c *dig.Container) error { return registerDb(c, b.dbConnect) }},
		{"metrics", registerMetrics},
		{"live", registerLive},
		{"domain", registerDomainServices},
		{"jobs", registerJobs},
		{"kafka", registerKafka},
		{"http", registerHTTP},
	}
	for _, s := range steps {
		if err := s.fn(container); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
	)
}

func registerDb(container *dig.Container, dbConnect dbConnectFunc) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		return openDatabase(ctx, logger, cfg.DB.DSN(), dbConnect)
	}
	return provideAll(container,
		providerDB,
		repository.NewOrderRepo,
		repository.NewCourierRepo,
	)
}

type metricsOut struct {
	dig.Out

	Registry    *prometheus.Registry
	Dispatch    *metrics.Dispatch
	HTTP        *mw.HTTPMetrics
	LiveDropped prometheus.Counter `name:"live_events_dropped_total"`
	RateLimited prometheus.Counter `name:"rate_limit_exceeded_total"`
}

func newMetrics() (metricsOut, error) {
	out := metricsOut{
		Registry:    prometheus.NewRegistry(),
		Dispatch:    metrics.NewDispatch(),
		HTTP:        mw.NewHTTPMetrics(),
		LiveDropped: metrics.NewLiveDropped(),
		RateLimited: metrics.NewRateLimitExceededTotal(),
	}
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		out.LiveDropped,
		out.RateLimited,
	}
	cs = append(cs, out.Dispatch.Collectors()...)
	cs = append(cs, out.HTTP.Collectors()...)
	for _, c := range cs {
		if err := out.Registry.Register(c); err != nil {
			return metricsOut{}, fmt.Errorf("register metrics: %w", err)
		}
	}
	return out, nil
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container, newMetrics)
}

type hubIn struct {
	dig.In

	Logger  logx.Logger
	Dropped prometheus.Counter `name:"live_events_dropped_total"`
}

func newHub(in hubIn) *live.Hub {
	return live.NewHub(live.DefaultBuffer, in.Dropped, in.Logger)
}

// newRedisClient returns nil when no Redis address is configured.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newRedisBroker(client *redis.Client, hub *live.Hub, logger logx.Logger) *live.RedisBroker {
	if client == nil {
		return nil
	}
	return live.NewRedisBroker(client, hub, logger)
}

// newPublisher fans out across instances through Redis when it is configured,
// otherwise straight into the local hub.
func newPublisher(hub *live.Hub, broker *live.RedisBroker, logger logx.Logger) live.Publisher {
	if broker != nil {
		return broker
	}
	logger.Info("redis not configured, live events stay in process")
	return hub
}

func registerLive(container *dig.Container) error {
	return provideAll(container,
		newHub,
		newRedisClient,
		newRedisBroker,
		newPublisher,
	)
}

func newEngine(
	cfg *config.Config,
	ledger *repository.OrderRepo,
	roster *repository.CourierRepo,
	pub live.Publisher,
	logger logx.Logger,
	m *metrics.Dispatch,
) *dispatch.Engine {
	return dispatch.NewEngine(ledger, roster, pub, dispatch.RealClock{}, dispatch.Config{
		ResponseWindow:   cfg.Dispatch.ResponseWindow,
		OperationTimeout: cfg.Dispatch.OperationTimeout,
	}, logger.With(logx.String("component", "dispatch")), m)
}

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		newEngine,
		func(cfg *config.Config, repo *repository.OrderRepo, engine *dispatch.Engine, pub live.Publisher, logger logx.Logger) *orders.Service {
			return orders.NewService(repo, engine, pub, orders.Config{
				RatePerKm:        cfg.Delivery.RatePerKm,
				OperationTimeout: cfg.Delivery.OperationTimeout,
			}, logger)
		},
		orders.NewProcessor,
		func(cfg *config.Config, repo *repository.OrderRepo, pub live.Publisher, logger logx.Logger) *delivery.Service {
			return delivery.NewDeliveryService(repo, pub, delivery.Config{
				MaxCodeAttempts:  cfg.Delivery.MaxCodeAttempts,
				OperationTimeout: cfg.Delivery.OperationTimeout,
			}, logger)
		},
		func(
			cfg *config.Config,
			roster *repository.CourierRepo,
			repo *repository.OrderRepo,
			engine *dispatch.Engine,
			pub live.Publisher,
			logger logx.Logger,
		) *courier.Service {
			return courier.NewService(roster, repo, engine, pub, cfg.Delivery.OperationTimeout, logger)
		},
		func(cfg *config.Config) *auth.Verifier { return auth.NewVerifier(cfg.Auth.JWTSecret) },
	)
}

func newReaper(
	cfg *config.Config,
	repo *repository.OrderRepo,
	engine *dispatch.Engine,
	pub live.Publisher,
	logger logx.Logger,
	m *metrics.Dispatch,
) *reaper.Reaper {
	return reaper.New(repo, engine, pub, cfg.Reaper.StaleAfter, logger.With(logx.String("component", "reaper")), m)
}

func newScheduler(cfg *config.Config, r *reaper.Reaper, logger logx.Logger) (*jobs.Scheduler, error) {
	s := jobs.NewScheduler(logger, cfg.Dispatch.OperationTimeout*10)
	if err := s.Every("stale_order_reaper", cfg.Reaper.Interval, r.Sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func registerJobs(container *dig.Container) error {
	return provideAll(container, newReaper, newScheduler)
}

func newOrdersConsumer(cfg *config.Config, logger logx.Logger, p *orders.Processor) (*kafka.Consumer, error) {
	return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.OrdersTopic, makeOrdersKafka(p))
}

func registerKafka(container *dig.Container) error {
	return provideAll(container, newOrdersConsumer)
}

func newLiveHandler(
	v *auth.Verifier,
	hub *live.Hub,
	couriers *courier.Service,
	deliveries *delivery.Service,
	logger logx.Logger,
) *ws.Handler {
	return ws.NewHandler(v, hub, couriers, deliveries, logger.With(logx.String("component", "ws")))
}

type routerIn struct {
	dig.In

	Logger      logx.Logger
	Base        *handlers.Handlers
	Orders      *handlers.OrderHandler
	Couriers    *handlers.CourierHandler
	Deliveries  *handlers.DeliveryHandler
	Live        *ws.Handler
	Registry    *prometheus.Registry
	HTTPMetrics *mw.HTTPMetrics
	Verifier    *auth.Verifier
	RateLimit   *ratelimit.Middleware
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Logger:      in.Logger,
		Base:        in.Base,
		Orders:      in.Orders,
		Couriers:    in.Couriers,
		Deliveries:  in.Deliveries,
		Live:        in.Live,
		Metrics:     promhttp.HandlerFor(in.Registry, promhttp.HandlerOpts{}),
		HTTPMetrics: in.HTTPMetrics,
		Verifier:    in.Verifier,
		RateLimit:   in.RateLimit,
	})
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		func(logger logx.Logger, svc *orders.Service) *handlers.OrderHandler {
			return handlers.NewOrderHandler(logger, svc)
		},
		func(logger logx.Logger, svc *courier.Service) *handlers.CourierHandler {
			return handlers.NewCourierHandler(logger, svc)
		},
		func(logger logx.Logger, svc *delivery.Service) *handlers.DeliveryHandler {
			return handlers.NewDeliveryHandler(logger, svc)
		},
		newLiveHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRouter,
		serverProvider,
	)
}
