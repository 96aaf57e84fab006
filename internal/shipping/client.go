package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

// Client calls a remote shipping-calculation endpoint.
type Client struct {
	c *clients.Client
}

func NewClient(c *clients.Client) *Client { return &Client{c: c} }

type quoteRequest struct {
	ShippingAddress Address `json:"shipping_address"`
	Items           []Item  `json:"items"`
}

type quoteResponse struct {
	Success      bool   `json:"success"`
	ShippingCost string `json:"shipping_cost"`
	Currency     string `json:"currency"`
	Method       string `json:"method"`
	Error        string `json:"error"`
}

func (cl *Client) Quote(ctx context.Context, addr Address, items []Item) (Quote, error) {
	var resp quoteResponse
	err := cl.c.PostJSON(ctx, "/api/calculate-shipping", quoteRequest{ShippingAddress: addr, Items: items}, &resp)
	if err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) && resp.Error != "" {
			return Quote{}, fmt.Errorf("%w: %s", ErrQuoteFailed, resp.Error)
		}
		return Quote{}, fmt.Errorf("%w: %w", ErrQuoteFailed, err)
	}
	if !resp.Success {
		return Quote{}, fmt.Errorf("%w: %s", ErrQuoteFailed, resp.Error)
	}

	cost, err := ParseCost(resp.ShippingCost)
	if err != nil {
		return Quote{}, err
	}
	currency := resp.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return Quote{Cost: cost, Currency: currency, Method: resp.Method, Source: SourceRemote}, nil
}
