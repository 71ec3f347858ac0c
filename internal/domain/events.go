package domain

import "github.com/google/uuid"

// Live event names.
const (
	EventOffer     = "order:offer"
	EventStatus    = "order:update"
	EventCompleted = "order:completed"
	EventLocation  = "courier:location"
)

// OfferHotel is the hotel block of an offer.
type OfferHotel struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Offer is the time-boxed proposal sent to one courier.
type Offer struct {
	OrderID                   uuid.UUID  `json:"orderId"`
	Hotel                     OfferHotel `json:"hotel"`
	CustomerName              string     `json:"customerName"`
	DistanceToHotelKm         float64    `json:"distanceToHotelKm"`
	DistanceHotelToCustomerKm float64    `json:"distanceHotelToCustomerKm"`
	Earning                   float64    `json:"earning"`
	ResponseWindowSeconds     int        `json:"responseWindowSeconds"`
}

// CourierPublic is the courier info a customer may see.
type CourierPublic struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Lat  *float64  `json:"lat"`
	Lng  *float64  `json:"lng"`
}

// NewCourierPublic projects c to its customer-facing form.
func NewCourierPublic(c Courier) *CourierPublic {
	out := &CourierPublic{ID: c.ID, Name: c.Name}
	if c.Location != nil {
		lat, lng := c.Location.Lat, c.Location.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	return out
}

// StatusUpdate notifies the customer of a status change.
type StatusUpdate struct {
	OrderID uuid.UUID      `json:"orderId"`
	Status  OrderStatus    `json:"status"`
	Courier *CourierPublic `json:"courier,omitempty"`
}

// Completion notifies the customer that the order was delivered.
type Completion struct {
	OrderID uuid.UUID   `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// LocationPing relays a courier position to the customer of its active order.
type LocationPing struct {
	OrderID uuid.UUID `json:"orderId"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
}

// OfferFor builds the offer payload for a candidate at distanceKm from the hotel.
func OfferFor(o *Order, distanceKm float64, windowSeconds int) Offer {
	return Offer{
		OrderID: o.ID,
		Hotel: OfferHotel{
			Name: o.Hotel.Name,
			Lat:  o.Hotel.Location.Lat,
			Lng:  o.Hotel.Location.Lng,
		},
		CustomerName:              o.CustomerName,
		DistanceToHotelKm:         distanceKm,
		DistanceHotelToCustomerKm: o.DeliveryDistanceKm,
		Earning:                   o.CourierEarning,
		ResponseWindowSeconds:     windowSeconds,
	}
}
