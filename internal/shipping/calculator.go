package shipping

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

// Calculator quotes through the Printful shipping-rates API and falls back to FlatRate when
// Printful is not configured, fails, or the items carry no Printful variant ids.
type Calculator struct {
	printful *clients.Client
	logger   *zap.Logger
}

func NewCalculator(printful *clients.Client, logger *zap.Logger) *Calculator {
	return &Calculator{printful: printful, logger: logger}
}

type printfulRecipient struct {
	CountryCode string `json:"country_code"`
	StateCode   string `json:"state_code,omitempty"`
	City        string `json:"city,omitempty"`
	ZIP         string `json:"zip,omitempty"`
}

type printfulItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type printfulRatesRequest struct {
	Recipient printfulRecipient `json:"recipient"`
	Items     []printfulItem    `json:"items"`
}

type printfulRate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Rate     string `json:"rate"`
	Currency string `json:"currency"`
}

type printfulRatesResponse struct {
	Code   int            `json:"code"`
	Result []printfulRate `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Calculator) Quote(ctx context.Context, addr Address, items []Item) (Quote, error) {
	addr = addr.Normalize()
	if err := addr.Validate(); err != nil {
		return Quote{}, err
	}
	if totalQuantity(items) == 0 {
		return Quote{}, ErrNoItems
	}

	if c.printful != nil && allHaveVariants(items) {
		q, err := c.printfulQuote(ctx, addr, items)
		if err == nil {
			return q, nil
		}
		c.logger.Warn("printful shipping quote failed, using flat rate",
			zap.String("country_code", addr.CountryCode),
			zap.Error(err),
		)
	}
	return FlatRate(addr, items)
}

func (c *Calculator) printfulQuote(ctx context.Context, addr Address, items []Item) (Quote, error) {
	req := printfulRatesRequest{
		Recipient: printfulRecipient{
			CountryCode: addr.CountryCode,
			StateCode:   addr.StateCode,
			City:        addr.City,
			ZIP:         addr.ZIP,
		},
	}
	for _, it := range items {
		req.Items = append(req.Items, printfulItem{VariantID: it.VariantID, Quantity: it.Quantity})
	}

	var resp printfulRatesResponse
	if err := c.printful.PostJSON(ctx, "/shipping/rates", req, &resp); err != nil {
		return Quote{}, err
	}
	if resp.Error != nil {
		return Quote{}, fmt.Errorf("%w: %s", ErrQuoteFailed, resp.Error.Message)
	}

	best := Quote{Cost: math.Inf(1)}
	for _, r := range resp.Result {
		cost, err := ParseCost(r.Rate)
		if err != nil {
			continue
		}
		if cost < best.Cost {
			best = Quote{Cost: cost, Currency: r.Currency, Method: r.Name, Source: SourcePrintful}
		}
	}
	if math.IsInf(best.Cost, 1) {
		return Quote{}, fmt.Errorf("%w: no shipping rates returned", ErrQuoteFailed)
	}
	if best.Currency == "" {
		best.Currency = DefaultCurrency
	}
	return best, nil
}

func allHaveVariants(items []Item) bool {
	for _, it := range items {
		if it.VariantID == "" {
			return false
		}
	}
	return true
}
