package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"service-dispatch/internal/geo"
)

// CouponFlat10 takes 10% off the order total.
const CouponFlat10 = "FLAT10"

// PlaceOrder is a customer's request to create an order.
type PlaceOrder struct {
	HotelID  uuid.UUID
	Items    []OrderItem
	Delivery geo.Point
	Coupon   string
}

// Totals returns the item total and the amount payable after the coupon.
func (p PlaceOrder) Totals() (total, final float64) {
	for _, it := range p.Items {
		total += it.Price * float64(it.Quantity)
	}
	final = total
	if p.Coupon == CouponFlat10 {
		final = total * 0.9
	}
	return total, final
}

// NewDeliveryCode returns a random 4-digit confirmation code.
func NewDeliveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("delivery code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
