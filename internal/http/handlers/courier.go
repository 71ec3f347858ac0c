package handlers

import (
	"net/http"

	"service-dispatch/internal/logx"
)

// CourierHandler serves courier presence, offer and dashboard endpoints.
type CourierHandler struct {
	uc     courierUsecase
	logger logx.Logger
}

// NewCourierHandler creates a new CourierHandler.
func NewCourierHandler(logger logx.Logger, uc courierUsecase) *CourierHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &CourierHandler{uc: uc, logger: logger}
}

// GoOnline handles POST /courier/go-online.
func (h *CourierHandler) GoOnline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req pointRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	p, ok := req.toModel()
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if err := h.uc.GoOnline(r.Context(), me.ID, p); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]bool{"is_online": true})
}

// GoOffline handles POST /courier/go-offline.
func (h *CourierHandler) GoOffline(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	if err := h.uc.GoOffline(r.Context(), me.ID); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]bool{"is_online": false})
}

// Location handles POST /courier/location.
func (h *CourierHandler) Location(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req pointRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	p, ok := req.toModel()
	if !ok {
		writeError(h.logger, w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if err := h.uc.ReportLocation(r.Context(), me.ID, p); err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentOrder handles GET /courier/current-order.
func (h *CourierHandler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.uc.CurrentOrder(r.Context(), me.ID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	if o == nil {
		writeJSON(h.logger, w, r, http.StatusOK, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, false))
}

// Stats handles GET /courier/stats.
func (h *CourierHandler) Stats(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	s, err := h.uc.Stats(r.Context(), me.ID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statsToResponse(s))
}

// Wallet handles GET /courier/wallet.
func (h *CourierHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	wallet, err := h.uc.Wallet(r.Context(), me.ID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, walletToResponse(wallet))
}

// Accept handles POST /courier/orders/{id}/accept.
func (h *CourierHandler) Accept(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.uc.Accept(r.Context(), me.ID, orderID)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, false))
}

// Reject handles POST /courier/orders/{id}/reject.
func (h *CourierHandler) Reject(w http.ResponseWriter, r *http.Request) {
	me, orderID, ok := callerAndOrder(h.logger, w, r)
	if !ok {
		return
	}
	h.uc.Reject(me.ID, orderID)
	w.WriteHeader(http.StatusNoContent)
}
