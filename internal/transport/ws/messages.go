package ws

import (
	"encoding/json"

	"github.com/google/uuid"

	"service-dispatch/internal/domain"
)

// Signal types a courier may send over the socket.
const (
	SignalGoOnline      = "courier:go-online"
	SignalGoOffline     = "courier:go-offline"
	SignalLocation      = "courier:location"
	SignalAccept        = "order:accept"
	SignalReject        = "order:reject"
	SignalPickup        = "order:pickup"
	SignalStartDelivery = "order:start-delivery"
	SignalComplete      = "order:complete"
)

// Reply types.
const (
	TypeAck   = "ack"
	TypeError = "error"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type pointData struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type orderData struct {
	OrderID uuid.UUID `json:"orderId"`
	Code    string    `json:"code,omitempty"`
}

type orderRef struct {
	ID     uuid.UUID          `json:"orderId"`
	Status domain.OrderStatus `json:"status"`
}

type ackData struct {
	For   string    `json:"for"`
	Order *orderRef `json:"order,omitempty"`
}

type errorData struct {
	For   string `json:"for"`
	Error string `json:"error"`
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func ack(signal string, o *domain.Order) envelope {
	d := ackData{For: signal}
	if o != nil {
		d.Order = &orderRef{ID: o.ID, Status: o.Status}
	}
	return envelope{Type: TypeAck, Data: d}
}

func fail(signal, msg string) envelope {
	return envelope{Type: TypeError, Data: errorData{For: signal, Error: msg}}
}
