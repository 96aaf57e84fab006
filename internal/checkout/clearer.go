package checkout

import (
	"context"
	"errors"
	"fmt"
)

type CartDeleter interface {
	Delete(ctx context.Context, sessionID string) error
}

type PendingMerchClearer interface {
	ClearPendingMerch(ctx context.Context, sessionID string) error
}

// SessionStateClearer deletes the cart and the pending merch handoff of a session.
type SessionStateClearer struct {
	carts CartDeleter
	merch PendingMerchClearer
}

func NewSessionStateClearer(carts CartDeleter, merch PendingMerchClearer) *SessionStateClearer {
	return &SessionStateClearer{carts: carts, merch: merch}
}

// ClearCheckoutState attempts both deletions and reports every failure.
func (c *SessionStateClearer) ClearCheckoutState(ctx context.Context, sessionID string) error {
	var errs []error
	if err := c.carts.Delete(ctx, sessionID); err != nil {
		errs = append(errs, fmt.Errorf("delete cart: %w", err))
	}
	if c.merch != nil {
		if err := c.merch.ClearPendingMerch(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("clear pending merch: %w", err))
		}
	}
	return errors.Join(errs...)
}
