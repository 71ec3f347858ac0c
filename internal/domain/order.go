package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/geo"
)

// Hotel is the pickup point of an order.
type Hotel struct {
	ID       uuid.UUID
	Name     string
	Location geo.Point
}

// Order is the persistent delivery record.
type Order struct {
	ID           uuid.UUID
	Status       OrderStatus
	CustomerID   uuid.UUID
	CustomerName string
	Hotel        Hotel
	CourierID    *uuid.UUID

	DeliveryLocation   geo.Point
	DeliveryDistanceKm float64
	CourierEarning     float64
	TotalAmount        float64
	FinalAmount        float64
	CouponCode         string

	DeliveryCode string
	CodeAttempts int

	CreatedAt   time.Time
	AcceptedAt  *time.Time
	DeliveredAt *time.Time
}

// OrderItem is a line of an order.
type OrderItem struct {
	FoodID   uuid.UUID
	Quantity int
	Price    float64
}

// BoundTo reports whether courierID is the courier bound to the order.
func (o *Order) BoundTo(courierID uuid.UUID) bool {
	return o.CourierID != nil && *o.CourierID == courierID
}

// Transition moves the order to status to, stamping timestamps and binding the courier
// on acceptance. The order is left unchanged on error.
func (o *Order) Transition(to OrderStatus, courierID uuid.UUID, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	switch to {
	case OrderAccepted:
		if courierID == uuid.Nil {
			return fmt.Errorf("%w: accept without courier", ErrInvalidTransition)
		}
		id := courierID
		o.CourierID = &id
		o.AcceptedAt = &now
	case OrderPickedUp, OrderOnTheWay, OrderDelivered:
		if !o.BoundTo(courierID) {
			return ErrNotAuthorized
		}
		if to == OrderDelivered {
			o.DeliveredAt = &now
		}
	}
	o.Status = to
	return nil
}
