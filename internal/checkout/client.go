package checkout

import (
	"context"
	"fmt"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

// Client submits payloads to a remote checkout-session endpoint.
type Client struct {
	c *clients.Client
}

func NewClient(c *clients.Client) *Client { return &Client{c: c} }

type submitResponse struct {
	Success   bool   `json:"success"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

func (cl *Client) Submit(ctx context.Context, p Payload) (SubmitResult, error) {
	var resp submitResponse
	if err := cl.c.PostJSON(ctx, "/api/create-checkout-session", p, &resp); err != nil {
		if resp.Error != "" {
			return SubmitResult{}, fmt.Errorf("create checkout session: %s", resp.Error)
		}
		return SubmitResult{}, fmt.Errorf("create checkout session: %w", err)
	}
	if !resp.Success {
		return SubmitResult{}, fmt.Errorf("create checkout session: %s", resp.Error)
	}
	return SubmitResult{SessionID: resp.SessionID, URL: resp.URL}, nil
}
