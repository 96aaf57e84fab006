package shipping

import "math"

// Rate is a first-item price plus a price for every additional item.
type Rate struct {
	First      float64
	Additional float64
}

var (
	DomesticRate      = Rate{First: 5.99, Additional: 2.00}
	InternationalRate = Rate{First: 14.99, Additional: 4.00}
)

// FlatRate prices shipping from a fixed table, used when no carrier quote is available.
func FlatRate(addr Address, items []Item) (Quote, error) {
	if err := addr.Validate(); err != nil {
		return Quote{}, err
	}
	n := totalQuantity(items)
	if n == 0 {
		return Quote{}, ErrNoItems
	}

	rate := InternationalRate
	method := "International flat rate"
	if addr.IsDomestic() {
		rate = DomesticRate
		method = "Domestic flat rate"
	}

	cost := rate.First + rate.Additional*float64(n-1)
	return Quote{
		Cost:     math.Round(cost*100) / 100,
		Currency: DefaultCurrency,
		Method:   method,
		Source:   SourceFlatRate,
	}, nil
}
