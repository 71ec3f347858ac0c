package reaper

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/live"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/metrics"
)

type staleOrders interface {
	CancelStale(ctx context.Context, cutoff time.Time) ([]domain.Order, error)
}

// SessionStopper ends a local dispatch cascade.
type SessionStopper interface {
	Stop(orderID uuid.UUID)
}

// Publisher delivers live events.
type Publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}

// Reaper cancels orders that stayed unmatched for too long.
type Reaper struct {
	orders     staleOrders
	sessions   SessionStopper
	pub        Publisher
	staleAfter time.Duration
	logger     logx.Logger
	metrics    *metrics.Dispatch
	now        func() time.Time
}

// New creates a Reaper. sessions may be nil when no cascade runs in this process.
func New(orders staleOrders, sessions SessionStopper, pub Publisher, staleAfter time.Duration, logger logx.Logger, m *metrics.Dispatch) *Reaper {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Reaper{
		orders:     orders,
		sessions:   sessions,
		pub:        pub,
		staleAfter: staleAfter,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Sweep cancels every searching order older than the staleness threshold.
func (r *Reaper) Sweep(ctx context.Context) error {
	cancelled, err := r.orders.CancelStale(ctx, r.now().Add(-r.staleAfter))
	if err != nil {
		return err
	}
	if len(cancelled) == 0 {
		return nil
	}

	for _, o := range cancelled {
		if r.sessions != nil {
			r.sessions.Stop(o.ID)
		}
		if r.pub == nil {
			continue
		}
		err := r.pub.Publish(ctx, live.Event{
			Topic: live.CustomerTopic(o.CustomerID),
			Type:  domain.EventStatus,
			Data:  domain.StatusUpdate{OrderID: o.ID, Status: domain.OrderCancelled},
		})
		if err != nil {
			r.logger.Warn("cancel notification failed", logx.UUID("order_id", o.ID), logx.Err(err))
		}
	}

	r.metrics.Reaped(len(cancelled))
	r.logger.Info("stale orders cancelled",
		logx.String("event", "stale_orders_cancelled"),
		logx.Int("count", len(cancelled)),
	)
	return nil
}
