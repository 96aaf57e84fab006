package shipping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	SourcePrintful = "printful"
	SourceFlatRate = "flat_rate"
	SourceRemote   = "remote"

	DefaultCurrency = "USD"
)

var (
	ErrInvalidAddress = errors.New("shipping: invalid address")
	ErrNoItems        = errors.New("shipping: no items to ship")
	ErrQuoteFailed    = errors.New("shipping: quote failed")
)

type Address struct {
	Name        string `json:"name,omitempty"`
	Address1    string `json:"address1,omitempty"`
	City        string `json:"city,omitempty"`
	StateCode   string `json:"state_code,omitempty"`
	ZIP         string `json:"zip"`
	CountryCode string `json:"country_code"`
}

// Normalize upper-cases codes and trims whitespace.
func (a Address) Normalize() Address {
	a.CountryCode = strings.ToUpper(strings.TrimSpace(a.CountryCode))
	a.StateCode = strings.ToUpper(strings.TrimSpace(a.StateCode))
	a.ZIP = strings.TrimSpace(a.ZIP)
	return a
}

func (a Address) IsDomestic() bool {
	return a.Normalize().CountryCode == "US"
}

// Validate requires a two-letter country code, and a ZIP code for US addresses.
func (a Address) Validate() error {
	n := a.Normalize()
	if len(n.CountryCode) != 2 {
		return fmt.Errorf("%w: country_code must be a two-letter code", ErrInvalidAddress)
	}
	if n.CountryCode == "US" && n.ZIP == "" {
		return fmt.Errorf("%w: zip is required for US addresses", ErrInvalidAddress)
	}
	return nil
}

type Item struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Quote struct {
	Cost     float64 `json:"cost"`
	Currency string  `json:"currency"`
	Method   string  `json:"method,omitempty"`
	Source   string  `json:"source"`
}

// Quoter prices shipping for a set of items to an address.
type Quoter interface {
	Quote(ctx context.Context, addr Address, items []Item) (Quote, error)
}

// FormatCost renders a cost the way the shipping endpoint returns it, e.g. "7.50".
func FormatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', 2, 64)
}

func ParseCost(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid shipping_cost %q", ErrQuoteFailed, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite shipping_cost %q", ErrQuoteFailed, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative shipping_cost %q", ErrQuoteFailed, s)
	}
	return v, nil
}

func totalQuantity(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}
