package handlers

import (
	"context"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/service/courier"
)

type orderUsecase interface {
	Place(ctx context.Context, customerID uuid.UUID, req domain.PlaceOrder) (*domain.Order, error)
	Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error)
	Get(ctx context.Context, customerID, orderID uuid.UUID) (*domain.Order, error)
	Active(ctx context.Context, customerID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error)
}

type courierUsecase interface {
	GoOnline(ctx context.Context, id uuid.UUID, p geo.Point) error
	GoOffline(ctx context.Context, id uuid.UUID) error
	ReportLocation(ctx context.Context, id uuid.UUID, p geo.Point) error
	Accept(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	Reject(courierID, orderID uuid.UUID)
	CurrentOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Stats(ctx context.Context, id uuid.UUID) (domain.CourierStats, error)
	Wallet(ctx context.Context, id uuid.UUID) (courier.Wallet, error)
}

type deliveryUsecase interface {
	MarkPickedUp(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	MarkOnTheWay(ctx context.Context, courierID, orderID uuid.UUID) (*domain.Order, error)
	Complete(ctx context.Context, courierID, orderID uuid.UUID, code string) (*domain.Order, error)
}
