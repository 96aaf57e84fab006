package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

func TestAddressValidate(t *testing.T) {
	tests := map[string]struct {
		addr    Address
		wantErr bool
	}{
		"us with zip":          {Address{ZIP: "94107", CountryCode: "US"}, false},
		"lowercase country":    {Address{ZIP: "94107", CountryCode: " us "}, false},
		"us without zip":       {Address{CountryCode: "US"}, true},
		"international no zip": {Address{CountryCode: "DE"}, false},
		"missing country":      {Address{ZIP: "94107"}, true},
		"three letter country": {Address{ZIP: "1", CountryCode: "USA"}, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.addr.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFlatRate(t *testing.T) {
	tests := map[string]struct {
		addr  Address
		items []Item
		want  float64
	}{
		"domestic single":      {Address{ZIP: "10001", CountryCode: "US"}, []Item{{Quantity: 1}}, 5.99},
		"domestic three":       {Address{ZIP: "10001", CountryCode: "US"}, []Item{{Quantity: 2}, {Quantity: 1}}, 9.99},
		"international single": {Address{CountryCode: "GB"}, []Item{{Quantity: 1}}, 14.99},
		"international two":    {Address{CountryCode: "GB"}, []Item{{Quantity: 2}}, 18.99},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := FlatRate(tt.addr, tt.items)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, q.Cost, 1e-9)
			assert.Equal(t, SourceFlatRate, q.Source)
			assert.Equal(t, DefaultCurrency, q.Currency)
		})
	}

	_, err := FlatRate(Address{ZIP: "1", CountryCode: "US"}, nil)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestParseAndFormatCost(t *testing.T) {
	v, err := ParseCost("7.50")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)
	assert.Equal(t, "7.50", FormatCost(v))

	for _, bad := range []string{"seven", "-1", "NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e400"} {
		_, err = ParseCost(bad)
		require.ErrorIs(t, err, ErrQuoteFailed, bad)
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *clients.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := clients.NewClient("shipping", srv.URL, srv.Client())
	require.NoError(t, err)
	return c
}

func TestClientQuote_ParsesStringCost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/calculate-shipping", r.URL.Path)

		var req quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "94107", req.ShippingAddress.ZIP)
		assert.Len(t, req.Items, 1)

		_, _ = w.Write([]byte(`{"success":true,"shipping_cost":"7.50"}`))
	})

	q, err := NewClient(c).Quote(context.Background(), Address{ZIP: "94107", CountryCode: "US"}, []Item{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 7.5, q.Cost)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, SourceRemote, q.Source)
}

func TestClientQuote_RejectsNonFiniteCost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"shipping_cost":"NaN"}`))
	})

	_, err := NewClient(c).Quote(context.Background(), Address{ZIP: "94107", CountryCode: "US"}, []Item{{ProductID: "p1", Quantity: 1}})
	require.ErrorIs(t, err, ErrQuoteFailed)
}

func TestClientQuote_SurfacesUpstreamError(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"success false":  {http.StatusOK, `{"success":false,"error":"Invalid ZIP code"}`},
		"bad request":    {http.StatusBadRequest, `{"success":false,"error":"Invalid ZIP code"}`},
		"internal error": {http.StatusInternalServerError, `{"success":false,"error":"Invalid ZIP code"}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := NewClient(c).Quote(context.Background(), Address{ZIP: "00000", CountryCode: "US"}, []Item{{Quantity: 1}})
			require.ErrorIs(t, err, ErrQuoteFailed)
			assert.Contains(t, err.Error(), "Invalid ZIP code")
		})
	}
}

func TestCalculator_PrintfulPicksCheapestRate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipping/rates", r.URL.Path)

		var req printfulRatesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "US", req.Recipient.CountryCode)
		assert.Equal(t, "4012", req.Items[0].VariantID)

		_, _ = w.Write([]byte(`{"code":200,"result":[
			{"id":"EXPRESS","name":"Express","rate":"19.00","currency":"USD"},
			{"id":"STANDARD","name":"Flat Rate","rate":"4.75","currency":"USD"}
		]}`))
	})

	calc := NewCalculator(c, zap.NewNop())
	q, err := calc.Quote(context.Background(), Address{ZIP: "94107", CountryCode: "us"}, []Item{{VariantID: "4012", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 4.75, q.Cost)
	assert.Equal(t, "Flat Rate", q.Method)
	assert.Equal(t, SourcePrintful, q.Source)
}

func TestCalculator_FallsBackToFlatRate(t *testing.T) {
	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	tests := map[string]struct {
		calc  *Calculator
		items []Item
	}{
		"printful not configured": {NewCalculator(nil, zap.NewNop()), []Item{{VariantID: "1", Quantity: 1}}},
		"printful failing":        {NewCalculator(failing, zap.NewNop()), []Item{{VariantID: "1", Quantity: 1}}},
		"items without variants":  {NewCalculator(failing, zap.NewNop()), []Item{{ProductID: "p", Quantity: 1}}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := tt.calc.Quote(context.Background(), Address{ZIP: "94107", CountryCode: "US"}, tt.items)
			require.NoError(t, err)
			assert.Equal(t, SourceFlatRate, q.Source)
			assert.Equal(t, 5.99, q.Cost)
		})
	}
}

func TestCalculator_RejectsInvalidAddress(t *testing.T) {
	_, err := NewCalculator(nil, zap.NewNop()).Quote(context.Background(), Address{CountryCode: "US"}, []Item{{Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidAddress)
}
