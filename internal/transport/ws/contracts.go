package ws

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/auth"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/live"
)

type tokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type subscriber interface {
	Subscribe(topic string) *live.Subscription
}

// CourierActions are the presence and offer signals a courier may send.
type CourierActions interface {
	GoOnline(ctx context.Context, id uuid.UUID, p geo.Point) error
	GoOffline(ctx context.Context, id uuid.UUID) error
	ReportLocation(ctx context.Context, id uuid.UUID, p geo.Point) error
	Accept(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	Reject(courierID, orderID uuid.UUID)
}

// DeliveryActions advance an accepted order.
type DeliveryActions interface {
	MarkPickedUp(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	MarkOnTheWay(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	Complete(ctx context.Context, courierID, orderID uuid.UUID, code string) (*domain.Order, error)
}
