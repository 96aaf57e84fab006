package checkout

import (
	"errors"
	"fmt"

	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

var (
	ErrEmptyCart          = errors.New("checkout: cart is empty")
	ErrInvalidPayload     = errors.New("checkout: invalid payload")
	ErrSubmissionInFlight = errors.New("checkout: a submission is already in progress")
	ErrNotFound           = errors.New("checkout: session not found")
)

// Preferences are design preferences keyed by cart item id.
type Preferences map[string]cart.ToolSettings

// Line is one cart item as forwarded to the checkout endpoint.
type Line struct {
	ItemID             string             `json:"item_id,omitempty"`
	Product            cart.Product       `json:"product"`
	Variants           cart.Variant       `json:"variants"`
	VariantID          string             `json:"variant_id,omitempty"`
	Price              float64            `json:"price"`
	Quantity           int                `json:"quantity"`
	SelectedScreenshot string             `json:"selected_screenshot,omitempty"`
	ToolSettings       *cart.ToolSettings `json:"toolSettings,omitempty"`
}

func (l Line) item() cart.Item {
	return cart.Item{
		ID:                 l.ItemID,
		Product:            l.Product,
		Variant:            l.Variants,
		VariantID:          l.VariantID,
		Price:              l.Price,
		Quantity:           l.Quantity,
		SelectedScreenshot: l.SelectedScreenshot,
		ToolSettings:       l.ToolSettings,
	}
}

// Payload is the request body of a checkout session.
type Payload struct {
	SessionID       string           `json:"session_id"`
	Items           []Line           `json:"items"`
	ShippingAddress shipping.Address `json:"shipping_address"`
	Subtotal        float64          `json:"subtotal"`
	ShippingCost    float64          `json:"shipping_cost"`
	Total           float64          `json:"total"`
	Currency        string           `json:"currency"`
}

func (p Payload) Validate() error {
	if len(p.Items) == 0 {
		return ErrEmptyCart
	}
	for i, l := range p.Items {
		if err := l.item().Validate(); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrInvalidPayload, i, err)
		}
	}
	if err := p.ShippingAddress.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

// Subtotal recomputes the sum of price x quantity over the lines.
func Subtotal(lines []Line) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}
	return cart.RoundCents(total)
}

func shippingItems(lines []Line) []shipping.Item {
	out := make([]shipping.Item, 0, len(lines))
	for _, l := range lines {
		out = append(out, shipping.Item{
			ProductID: l.Product.ID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return out
}
