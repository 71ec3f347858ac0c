package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/http/handlers"
	mw "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/logx"
)

// Deps are the handlers and middleware the router mounts.
type Deps struct {
	Logger      logx.Logger
	Base        *handlers.Handlers
	Orders      *handlers.OrderHandler
	Couriers    *handlers.CourierHandler
	Deliveries  *handlers.DeliveryHandler
	Live        http.Handler
	Metrics     http.Handler
	HTTPMetrics *mw.HTTPMetrics
	Verifier    mw.TokenVerifier
	RateLimit   *ratelimit.Middleware
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logx.Nop()
	}
	limit := ratelimit.New(logger, nil, nil)
	if d.RateLimit != nil {
		limit = d.RateLimit
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Observability(logger, d.HTTPMetrics))
	r.Use(middleware.Recoverer)

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	// the socket outlives any request timeout
	if d.Live != nil {
		r.With(limit.Handler()).Method(http.MethodGet, "/ws", d.Live)
	}
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(mw.Authenticate(logger, d.Verifier))
		r.Use(limit.Handler())

		r.Route("/orders", func(r chi.Router) {
			r.Use(mw.RequireRole(auth.RoleCustomer))
			r.Post("/", d.Orders.Place)
			r.Get("/", d.Orders.List)
			r.Get("/active", d.Orders.Active)
			r.Get("/{id}", d.Orders.Get)
			r.Post("/{id}/cancel", d.Orders.Cancel)
		})

		r.Route("/courier", func(r chi.Router) {
			r.Use(mw.RequireRole(auth.RoleCourier))
			r.Post("/go-online", d.Couriers.GoOnline)
			r.Post("/go-offline", d.Couriers.GoOffline)
			r.Post("/location", d.Couriers.Location)
			r.Get("/current-order", d.Couriers.CurrentOrder)
			r.Get("/stats", d.Couriers.Stats)
			r.Get("/wallet", d.Couriers.Wallet)
			r.Post("/orders/{id}/accept", d.Couriers.Accept)
			r.Post("/orders/{id}/reject", d.Couriers.Reject)
			r.Post("/orders/{id}/pickup", d.Deliveries.Pickup)
			r.Post("/orders/{id}/start-delivery", d.Deliveries.StartDelivery)
			r.Post("/orders/{id}/complete", d.Deliveries.Complete)
		})
	})

	return r
}
