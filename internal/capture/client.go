package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andreasstove999/screenmerch-go/internal/clients"
)

// Client calls a remote capture endpoint.
type Client struct {
	c *clients.Client
}

func NewClient(c *clients.Client) *Client { return &Client{c: c} }

// NewHTTPClient returns a client without an overall timeout for the remote capture endpoint.
// A print render can run for the whole upgrade deadline, so the caller's context bounds each call.
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
}

type captureResponse struct {
	Success    bool    `json:"success"`
	Screenshot string  `json:"screenshot"`
	Quality    Quality `json:"quality"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Error      string  `json:"error"`
}

func (cl *Client) Capture(ctx context.Context, req Request) (Result, error) {
	var resp captureResponse
	err := cl.c.PostJSON(ctx, "/api/capture-screenshot", req, &resp)
	if err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) && resp.Error != "" {
			return Result{}, fmt.Errorf("%w: %s", ErrCaptureFailed, resp.Error)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	if !resp.Success || resp.Screenshot == "" {
		msg := resp.Error
		if msg == "" {
			msg = "empty screenshot"
		}
		return Result{}, fmt.Errorf("%w: %s", ErrCaptureFailed, msg)
	}

	q := resp.Quality
	if q == "" {
		q = req.EffectiveQuality()
	}
	return Result{
		Image:      resp.Screenshot,
		Quality:    q,
		Width:      resp.Width,
		Height:     resp.Height,
		Timestamp:  req.Timestamp,
		CapturedAt: time.Now().UTC(),
	}, nil
}
