//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/live"
	"service-dispatch/internal/ports/ledgertx"
)

// Dispatcher runs offer cascades for searching orders.
type Dispatcher interface {
	Start(ctx context.Context, orderID uuid.UUID) error
	Stop(orderID uuid.UUID)
}

// Store is the order ledger as used by order placement and customer reads.
type Store interface {
	WithTx(ctx context.Context, fn func(tx ledgertx.Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ActiveForCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
	BeginSearch(ctx context.Context, id uuid.UUID) error
	CancelSearching(ctx context.Context, id uuid.UUID) error
}

// Publisher delivers live events.
type Publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}
