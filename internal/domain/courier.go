package domain

import (
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/geo"
)

// Courier represents a delivery courier as seen by dispatch.
type Courier struct {
	ID            uuid.UUID
	Name          string
	Online        bool
	Available     bool
	Location      *geo.Point
	WalletBalance float64
}

// Dispatchable reports whether the courier may receive an offer right now.
func (c *Courier) Dispatchable() bool {
	return c != nil && c.Online && c.Available && c.Location != nil
}

// CourierStats is the courier dashboard summary.
type CourierStats struct {
	WalletBalance   float64
	Online          bool
	Available       bool
	TotalDeliveries int64
}

// WalletCredit is a single delivery payout.
type WalletCredit struct {
	ID        int64
	CourierID uuid.UUID
	OrderID   uuid.UUID
	Amount    float64
	CreatedAt time.Time
}
