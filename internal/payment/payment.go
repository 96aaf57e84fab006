package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/google/uuid"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

var ErrProviderFailed = errors.New("payment: provider failed")

type LineItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Quantity    int    `json:"quantity"`
}

type SessionRequest struct {
	ClientReferenceID string            `json:"client_reference_id"`
	Currency          string            `json:"currency"`
	LineItems         []LineItem        `json:"line_items"`
	ShippingCents     int64             `json:"shipping_cents"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Session is a hosted checkout page the buyer is redirected to.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}

// ToCents converts a dollar amount to integer cents.
func ToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Client creates sessions on a hosted checkout API.
type Client struct {
	c *clients.Client
}

// NewClient authenticates every request with apiKey as a bearer token.
func NewClient(c *clients.Client, apiKey string) *Client {
	if apiKey != "" {
		c.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return &Client{c: c}
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type sessionResponse struct {
	Session
	providerError
}

func (cl *Client) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	var resp sessionResponse
	if err := cl.c.PostJSON(ctx, "/v1/checkout/sessions", req, &resp); err != nil {
		if msg := resp.providerError.Error.Message; msg != "" {
			return Session{}, fmt.Errorf("%w: %s", ErrProviderFailed, msg)
		}
		return Session{}, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	if resp.URL == "" {
		return Session{}, fmt.Errorf("%w: session has no url", ErrProviderFailed)
	}
	return resp.Session, nil
}

// Offline completes every checkout immediately by redirecting to the success URL.
// It stands in for the hosted provider in local environments.
type Offline struct{}

func (Offline) CreateCheckoutSession(_ context.Context, req SessionRequest) (Session, error) {
	id := "offline_" + uuid.NewString()
	u, err := url.Parse(req.SuccessURL)
	if err != nil || req.SuccessURL == "" {
		return Session{}, fmt.Errorf("%w: invalid success url %q", ErrProviderFailed, req.SuccessURL)
	}
	q := u.Query()
	q.Set("session_id", id)
	u.RawQuery = q.Encode()
	return Session{ID: id, URL: u.String()}, nil
}
