package handlers

import (
	"net/http"

	"service-dispatch/internal/logx"
)

// DeliveryHandler handles courier progress through an accepted order.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &DeliveryHandler{usecase: uc, logger: logger}
}

// Pickup handles POST /courier/orders/{id}/pickup.
func (h *DeliveryHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.usecase.MarkPickedUp(r.Context(), me.ID, orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, false))
}

// StartDelivery handles POST /courier/orders/{id}/start-delivery.
func (h *DeliveryHandler) StartDelivery(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.usecase.MarkOnTheWay(r.Context(), me.ID, orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, false))
}

// Complete handles POST /courier/orders/{id}/complete.
// Answers 422 on a wrong code and 429 once the attempts are used up.
func (h *DeliveryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	var req completeRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	o, err := h.usecase.Complete(r.Context(), me.ID, orderID, req.Code)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, false))
}
