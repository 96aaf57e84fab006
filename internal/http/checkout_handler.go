package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

type calculateShippingRequest struct {
	ShippingAddress shipping.Address `json:"shipping_address"`
	Items           []shipping.Item  `json:"items"`
}

type calculateShippingResponse struct {
	Success      bool   `json:"success"`
	ShippingCost string `json:"shipping_cost"`
	Currency     string `json:"currency"`
	Method       string `json:"method,omitempty"`
	Source       string `json:"source"`
}

func (h *Handler) CalculateShipping(w http.ResponseWriter, r *http.Request) {
	var req calculateShippingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	q, err := h.quoter.Quote(r.Context(), req.ShippingAddress, req.Items)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateShippingResponse{
		Success:      true,
		ShippingCost: shipping.FormatCost(q.Cost),
		Currency:     q.Currency,
		Method:       q.Method,
		Source:       q.Source,
	})
}

func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var p checkout.Payload
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s, err := h.checkout.CreateSession(r.Context(), p)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:      true,
		URL:          s.URL,
		SessionID:    s.ID.String(),
		Subtotal:     s.Subtotal,
		ShippingCost: s.ShippingCost,
		Total:        s.Total,
	})
}

func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "checkoutSessionId"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid checkout session id")
		return
	}

	s, err := h.checkout.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "checkout_session": s})
}
