package handlers

import (
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

type orderItemRequest struct {
	FoodID   uuid.UUID `json:"food_id"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
}

type placeOrderRequest struct {
	HotelID     uuid.UUID          `json:"hotel_id"`
	Items       []orderItemRequest `json:"items"`
	DeliveryLat *float64           `json:"delivery_lat"`
	DeliveryLng *float64           `json:"delivery_lng"`
	CouponCode  string             `json:"coupon_code,omitempty"`
}

type pointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type completeRequest struct {
	Code string `json:"code"`
}

type hotelDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Lat  float64   `json:"lat"`
	Lng  float64   `json:"lng"`
}

type orderDTO struct {
	ID                 uuid.UUID          `json:"id"`
	Status             domain.OrderStatus `json:"status"`
	CustomerID         uuid.UUID          `json:"customer_id"`
	Hotel              hotelDTO           `json:"hotel"`
	CourierID          *uuid.UUID         `json:"courier_id"`
	DeliveryLat        float64            `json:"delivery_lat"`
	DeliveryLng        float64            `json:"delivery_lng"`
	DeliveryDistanceKm float64            `json:"delivery_distance_km"`
	CourierEarning     float64            `json:"courier_earning"`
	TotalAmount        float64            `json:"total_amount"`
	FinalAmount        float64            `json:"final_amount"`
	CouponCode         string             `json:"coupon_code,omitempty"`
	DeliveryCode       string             `json:"delivery_code,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	AcceptedAt         *time.Time         `json:"accepted_at,omitempty"`
	DeliveredAt        *time.Time         `json:"delivered_at,omitempty"`
}

type statsDTO struct {
	WalletBalance   float64 `json:"wallet_balance"`
	IsOnline        bool    `json:"is_online"`
	IsAvailable     bool    `json:"is_available"`
	TotalDeliveries int64   `json:"total_deliveries"`
}

type creditDTO struct {
	OrderID   uuid.UUID `json:"order_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type walletDTO struct {
	Balance      float64     `json:"balance"`
	Transactions []creditDTO `json:"transactions"`
}
