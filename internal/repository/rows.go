package repository

import (
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
)

const selectOrder = `
	SELECT o.id, o.status, o.customer_id, cu.name AS customer_name,
	       o.hotel_id, h.name AS hotel_name, h.lat AS hotel_lat, h.lng AS hotel_lng,
	       o.courier_id, o.delivery_lat, o.delivery_lng, o.delivery_distance_km,
	       o.courier_earning, o.total_amount, o.final_amount, o.coupon_code,
	       o.delivery_code, o.code_attempts, o.created_at, o.accepted_at, o.delivered_at
	FROM orders o
	JOIN customers cu ON cu.id = o.customer_id
	JOIN hotels h ON h.id = o.hotel_id`

const selectCourier = `
	SELECT id, name, is_online, is_available, lat, lng, wallet_balance
	FROM couriers`

type orderRow struct {
	ID                 uuid.UUID  `db:"id"`
	Status             string     `db:"status"`
	CustomerID         uuid.UUID  `db:"customer_id"`
	CustomerName       string     `db:"customer_name"`
	HotelID            uuid.UUID  `db:"hotel_id"`
	HotelName          string     `db:"hotel_name"`
	HotelLat           float64    `db:"hotel_lat"`
	HotelLng           float64    `db:"hotel_lng"`
	CourierID          *uuid.UUID `db:"courier_id"`
	DeliveryLat        float64    `db:"delivery_lat"`
	DeliveryLng        float64    `db:"delivery_lng"`
	DeliveryDistanceKm float64    `db:"delivery_distance_km"`
	CourierEarning     float64    `db:"courier_earning"`
	TotalAmount        float64    `db:"total_amount"`
	FinalAmount        float64    `db:"final_amount"`
	CouponCode         string     `db:"coupon_code"`
	DeliveryCode       string     `db:"delivery_code"`
	CodeAttempts       int        `db:"code_attempts"`
	CreatedAt          time.Time  `db:"created_at"`
	AcceptedAt         *time.Time `db:"accepted_at"`
	DeliveredAt        *time.Time `db:"delivered_at"`
}

func (r orderRow) toDomain() *domain.Order {
	return &domain.Order{
		ID:           r.ID,
		Status:       domain.OrderStatus(r.Status),
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Hotel: domain.Hotel{
			ID:       r.HotelID,
			Name:     r.HotelName,
			Location: geo.Point{Lat: r.HotelLat, Lng: r.HotelLng},
		},
		CourierID:          r.CourierID,
		DeliveryLocation:   geo.Point{Lat: r.DeliveryLat, Lng: r.DeliveryLng},
		DeliveryDistanceKm: r.DeliveryDistanceKm,
		CourierEarning:     r.CourierEarning,
		TotalAmount:        r.TotalAmount,
		FinalAmount:        r.FinalAmount,
		CouponCode:         r.CouponCode,
		DeliveryCode:       r.DeliveryCode,
		CodeAttempts:       r.CodeAttempts,
		CreatedAt:          r.CreatedAt,
		AcceptedAt:         r.AcceptedAt,
		DeliveredAt:        r.DeliveredAt,
	}
}

type courierRow struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	Online        bool      `db:"is_online"`
	Available     bool      `db:"is_available"`
	Lat           *float64  `db:"lat"`
	Lng           *float64  `db:"lng"`
	WalletBalance float64   `db:"wallet_balance"`
}

func (r courierRow) toDomain() domain.Courier {
	c := domain.Courier{
		ID:            r.ID,
		Name:          r.Name,
		Online:        r.Online,
		Available:     r.Available,
		WalletBalance: r.WalletBalance,
	}
	if r.Lat != nil && r.Lng != nil {
		c.Location = &geo.Point{Lat: *r.Lat, Lng: *r.Lng}
	}
	return c
}

type creditRow struct {
	ID        int64     `db:"id"`
	CourierID uuid.UUID `db:"courier_id"`
	OrderID   uuid.UUID `db:"order_id"`
	Amount    float64   `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

func activeStatuses() []string {
	out := make([]string, 0, len(domain.ActiveCourierStatuses))
	for _, s := range domain.ActiveCourierStatuses {
		out = append(out, string(s))
	}
	return out
}
