package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/andreasstove999/screenmerch-go/internal/middleware"
)

const maxErrorBody = 4 << 10

var ErrCircuitOpen = errors.New("upstream circuit open")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Upstream string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Upstream, e.Status, e.Body)
}

// Client is a JSON-over-HTTP client of one upstream, guarded by a circuit breaker.
type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
	Header  http.Header

	cb *gobreaker.CircuitBreaker[*http.Response]
}

func NewClient(name string, baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url %q: %w", name, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q: scheme and host are required", name, baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{Name: name, BaseURL: u, HTTP: httpClient, Header: http.Header{}, cb: cb}, nil
}

// Do sends the request through the breaker. 5xx responses count as failures; the
// response is still returned so callers can read the upstream's error body.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	u := c.BaseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vv := range c.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// propagate correlation id downstream
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	var upstream5xx *http.Response
	resp, err := c.cb.Execute(func() (*http.Response, error) {
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			upstream5xx = resp
			return nil, &StatusError{Upstream: c.Name, Status: resp.StatusCode}
		}
		return resp, nil
	})
	if upstream5xx != nil {
		return upstream5xx, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", c.Name, ErrCircuitOpen)
	}
	return resp, err
}

// PostJSON posts in as JSON and decodes the response into out. Bodies of non-2xx responses
// are decoded into out as well when possible, and a *StatusError is returned.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.Name, err)
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return &StatusError{Upstream: c.Name, Status: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Name, err)
	}
	return nil
}
