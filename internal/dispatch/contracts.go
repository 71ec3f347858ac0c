//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=dispatch_test

package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/live"
)

// Ledger is the part of the order store the engine reads and conditionally writes.
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	AcceptOrder(ctx context.Context, orderID, courierID uuid.UUID, at time.Time) (*domain.Order, *domain.Courier, error)
}

// Roster answers which couriers can take an offer.
type Roster interface {
	ListDispatchable(ctx context.Context) ([]domain.Courier, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Courier, error)
}

// Publisher delivers live events.
type Publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}
