package handlers

import (
	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
	"service-dispatch/internal/service/courier"
)

func (req placeOrderRequest) toModel() (domain.PlaceOrder, bool) {
	if req.DeliveryLat == nil || req.DeliveryLng == nil {
		return domain.PlaceOrder{}, false
	}
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{FoodID: it.FoodID, Quantity: it.Quantity, Price: it.Price})
	}
	return domain.PlaceOrder{
		HotelID:  req.HotelID,
		Items:    items,
		Delivery: geo.Point{Lat: *req.DeliveryLat, Lng: *req.DeliveryLng},
		Coupon:   req.CouponCode,
	}, true
}

func (req pointRequest) toModel() (geo.Point, bool) {
	if req.Lat == nil || req.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *req.Lat, Lng: *req.Lng}, true
}

// orderToResponse renders o. withCode is set for the customer view only.
func orderToResponse(o *domain.Order, withCode bool) orderDTO {
	dto := orderDTO{
		ID:         o.ID,
		Status:     o.Status,
		CustomerID: o.CustomerID,
		Hotel: hotelDTO{
			ID:   o.Hotel.ID,
			Name: o.Hotel.Name,
			Lat:  o.Hotel.Location.Lat,
			Lng:  o.Hotel.Location.Lng,
		},
		CourierID:          o.CourierID,
		DeliveryLat:        o.DeliveryLocation.Lat,
		DeliveryLng:        o.DeliveryLocation.Lng,
		DeliveryDistanceKm: o.DeliveryDistanceKm,
		CourierEarning:     o.CourierEarning,
		TotalAmount:        o.TotalAmount,
		FinalAmount:        o.FinalAmount,
		CouponCode:         o.CouponCode,
		CreatedAt:          o.CreatedAt,
		AcceptedAt:         o.AcceptedAt,
		DeliveredAt:        o.DeliveredAt,
	}
	if withCode {
		dto.DeliveryCode = o.DeliveryCode
	}
	return dto
}

func ordersToResponse(list []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for i := range list {
		out = append(out, orderToResponse(&list[i], true))
	}
	return out
}

func statsToResponse(s domain.CourierStats) statsDTO {
	return statsDTO{
		WalletBalance:   s.WalletBalance,
		IsOnline:        s.Online,
		IsAvailable:     s.Available,
		TotalDeliveries: s.TotalDeliveries,
	}
}

func walletToResponse(w courier.Wallet) walletDTO {
	out := walletDTO{Balance: w.Balance, Transactions: make([]creditDTO, 0, len(w.Credits))}
	for _, c := range w.Credits {
		out.Transactions = append(out.Transactions, creditDTO{OrderID: c.OrderID, Amount: c.Amount, CreatedAt: c.CreatedAt})
	}
	return out
}
