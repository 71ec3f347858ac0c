package handlers

import (
	"net/http"

	"service-dispatch/internal/logx"
)

// OrderHandler serves the customer order endpoints.
type OrderHandler struct {
	uc     orderUsecase
	logger logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, uc orderUsecase) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{uc: uc, logger: logger}
}

// Place handles POST /orders.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req placeOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	place, ok := req.toModel()
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "delivery_lat and delivery_lng are required")
		return
	}

	o, err := h.uc.Place(r.Context(), me.ID, place)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+o.ID.String())
	writeJSON(h.logger, w, r, http.StatusCreated, orderToResponse(o, true))
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.List(r.Context(), me.ID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list))
}

// Active handles GET /orders/active. It answers null when nothing is in progress.
func (h *OrderHandler) Active(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.uc.Active(r.Context(), me.ID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	if o == nil {
		writeJSON(h.logger, w, r, http.StatusOK, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, true))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.uc.Get(r.Context(), me.ID, orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, true))
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.uc.Cancel(r.Context(), me.ID, orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, true))
}
