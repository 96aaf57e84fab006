package checkout

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

// SubmitResult is where the buyer should be redirected to pay.
type SubmitResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Submitter creates a checkout session from a payload.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (SubmitResult, error)
}

// StateClearer removes the persisted cart and pending merch of a session.
type StateClearer interface {
	ClearCheckoutState(ctx context.Context, sessionID string) error
}

// Assembler turns a cart into a checkout payload and submits it at most once at a time per session.
type Assembler struct {
	quoter    shipping.Quoter
	submitter Submitter
	clearer   StateClearer
	logger    *zap.Logger

	inFlight sync.Map
}

func NewAssembler(quoter shipping.Quoter, submitter Submitter, clearer StateClearer, logger *zap.Logger) *Assembler {
	return &Assembler{quoter: quoter, submitter: submitter, clearer: clearer, logger: logger}
}

// Build assembles the payload. Preferences from prefs are applied to shirt items only;
// preferences already set on an item are forwarded for any product.
func (a *Assembler) Build(ctx context.Context, sessionID string, items []cart.Item, addr shipping.Address, prefs Preferences) (Payload, error) {
	if len(items) == 0 {
		return Payload{}, ErrEmptyCart
	}
	addr = addr.Normalize()
	if err := addr.Validate(); err != nil {
		return Payload{}, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		ts := it.ToolSettings
		if p, ok := prefs[it.ID]; ok && it.Product.IsShirt() {
			if err := p.Validate(); err != nil {
				return Payload{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
			ts = &p
		}
		lines = append(lines, Line{
			ItemID:             it.ID,
			Product:            it.Product,
			Variants:           it.Variant,
			VariantID:          it.VariantID,
			Price:              it.Price,
			Quantity:           it.Quantity,
			SelectedScreenshot: it.SelectedScreenshot,
			ToolSettings:       ts,
		})
	}

	quote, err := a.quoter.Quote(ctx, addr, shippingItems(lines))
	if err != nil {
		return Payload{}, err
	}

	subtotal := Subtotal(lines)
	return Payload{
		SessionID:       sessionID,
		Items:           lines,
		ShippingAddress: addr,
		Subtotal:        subtotal,
		ShippingCost:    quote.Cost,
		Total:           cart.RoundCents(subtotal + quote.Cost),
		Currency:        quote.Currency,
	}, nil
}

// Submit forwards the payload. A second submission for the same session while one is
// outstanding fails with ErrSubmissionInFlight. On success the session's cart state is cleared.
func (a *Assembler) Submit(ctx context.Context, p Payload) (SubmitResult, error) {
	if _, busy := a.inFlight.LoadOrStore(p.SessionID, struct{}{}); busy {
		return SubmitResult{}, ErrSubmissionInFlight
	}
	defer a.inFlight.Delete(p.SessionID)

	res, err := a.submitter.Submit(ctx, p)
	if err != nil {
		return SubmitResult{}, err
	}
	if res.URL == "" {
		return SubmitResult{}, fmt.Errorf("%w: checkout returned no redirect url", ErrInvalidPayload)
	}

	if a.clearer != nil {
		if err := a.clearer.ClearCheckoutState(ctx, p.SessionID); err != nil {
			a.logger.Warn("failed to clear checkout state",
				zap.String("session_id", p.SessionID),
				zap.Error(err),
			)
		}
	}
	return res, nil
}
