package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

type cartResponse struct {
	Success  bool       `json:"success"`
	Cart     *cart.Cart `json:"cart"`
	Subtotal float64    `json:"subtotal"`
}

func newCartResponse(c *cart.Cart) cartResponse {
	return cartResponse{Success: true, Cart: c, Subtotal: c.Subtotal()}
}

// loadCart returns an empty cart for sessions that never added anything.
func (h *Handler) loadCart(r *http.Request, sessionID string) (*cart.Cart, error) {
	c, err := h.carts.Get(r.Context(), sessionID)
	if errors.Is(err, cart.ErrNotFound) {
		return cart.New(sessionID), nil
	}
	return c, err
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.loadCart(r, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Delete(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var it cart.Item
	if err := decodeJSON(w, r, &it); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := h.loadCart(r, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	added, err := c.Add(it)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.carts.Save(r.Context(), c); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := newCartResponse(c)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"item":     added,
		"cart":     resp.Cart,
		"subtotal": resp.Subtotal,
	})
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
	// ToolSettings distinguishes an explicit null (clear) from an absent field (keep).
	ToolSettings json.RawMessage `json:"toolSettings"`
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var body updateItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Quantity == nil && body.ToolSettings == nil {
		writeError(w, r, http.StatusBadRequest, "quantity or toolSettings is required")
		return
	}

	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	itemID := chi.URLParam(r, "itemId")

	if body.Quantity != nil {
		if _, err := c.UpdateQuantity(itemID, *body.Quantity); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
	}
	if body.ToolSettings != nil {
		var ts *cart.ToolSettings
		if !bytes.Equal(bytes.TrimSpace(body.ToolSettings), []byte("null")) {
			ts = &cart.ToolSettings{}
			if err := json.Unmarshal(body.ToolSettings, ts); err != nil {
				writeError(w, r, http.StatusBadRequest, "invalid toolSettings")
				return
			}
		}
		if _, err := c.UpdatePreferences(itemID, ts); err != nil {
			h.writeDomainError(w, r, err)
			return
		}
	}

	if err := h.carts.Save(r.Context(), c); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	c, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := c.Remove(chi.URLParam(r, "itemId")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	// the last item going away destroys the cart
	if len(c.Items) == 0 {
		err = h.carts.Delete(r.Context(), sessionID)
	} else {
		err = h.carts.Save(r.Context(), c)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(c))
}

type cartCheckoutRequest struct {
	ShippingAddress shipping.Address     `json:"shipping_address"`
	Preferences     checkout.Preferences `json:"preferences"`
}

type checkoutResponse struct {
	Success      bool    `json:"success"`
	URL          string  `json:"url"`
	SessionID    string  `json:"session_id"`
	Subtotal     float64 `json:"subtotal,omitempty"`
	ShippingCost float64 `json:"shipping_cost,omitempty"`
	Total        float64 `json:"total,omitempty"`
}

// CheckoutCart assembles the session's cart into a checkout payload and submits it once.
func (h *Handler) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	var body cartCheckoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	sessionID := chi.URLParam(r, "sessionId")
	c, err := h.loadCart(r, sessionID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	p, err := h.assembler.Build(r.Context(), sessionID, c.Items, body.ShippingAddress, body.Preferences)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	res, err := h.assembler.Submit(r.Context(), p)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:      true,
		URL:          res.URL,
		SessionID:    res.SessionID,
		Subtotal:     p.Subtotal,
		ShippingCost: p.ShippingCost,
		Total:        p.Total,
	})
}
