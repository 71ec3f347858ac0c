package domain

// OrderStatus represents a step of the delivery lifecycle.
type OrderStatus string

// List of possible order statuses
const (
	OrderPending         OrderStatus = "pending"
	OrderSearchingDriver OrderStatus = "searching_driver"
	OrderAccepted        OrderStatus = "accepted"
	OrderPickedUp        OrderStatus = "picked_up"
	OrderOnTheWay        OrderStatus = "on_the_way"
	OrderDelivered       OrderStatus = "delivered"
	OrderCancelled       OrderStatus = "cancelled"
)

var allowedStatuses = [...]OrderStatus{
	OrderPending, OrderSearchingDriver, OrderAccepted, OrderPickedUp,
	OrderOnTheWay, OrderDelivered, OrderCancelled,
}

// transitions is the full delivery state graph; anything absent is illegal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:         {OrderSearchingDriver},
	OrderSearchingDriver: {OrderAccepted, OrderCancelled},
	OrderAccepted:        {OrderPickedUp},
	OrderPickedUp:        {OrderOnTheWay},
	OrderOnTheWay:        {OrderDelivered},
}

// ActiveCourierStatuses are the statuses in which an order holds its courier.
var ActiveCourierStatuses = []OrderStatus{OrderAccepted, OrderPickedUp, OrderOnTheWay}

// Valid checks if the OrderStatus is valid
func (s OrderStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// HoldsCourier reports whether an order in status s has a bound courier that is still working on it.
func (s OrderStatus) HoldsCourier() bool {
	for _, v := range ActiveCourierStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the state graph.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
