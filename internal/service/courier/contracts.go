package courier

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
)

// courierRepository defines roster operations required by the business layer.
type courierRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Courier, error)
	SetOnline(ctx context.Context, id uuid.UUID, p geo.Point) error
	SetOffline(ctx context.Context, id uuid.UUID) error
	UpdateLocation(ctx context.Context, id uuid.UUID, p geo.Point) error
	Stats(ctx context.Context, id uuid.UUID) (domain.CourierStats, error)
	Credits(ctx context.Context, id uuid.UUID) ([]domain.WalletCredit, error)
}

type activeOrders interface {
	ActiveForCourier(ctx context.Context, courierID uuid.UUID) (*domain.Order, error)
}

// Dispatcher resolves offers.
type Dispatcher interface {
	Accept(ctx context.Context, orderID, courierID uuid.UUID) (*domain.Order, error)
	Reject(orderID, courierID uuid.UUID)
}

// Publisher delivers live events.
type Publisher interface {
	Publish(ctx context.Context, ev live.Event) error
}
