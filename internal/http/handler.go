package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/capture"
	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/clients"
	"github.com/andreasstove999/screenmerch-go/internal/geometry"
	"github.com/andreasstove999/screenmerch-go/internal/imaging"
	"github.com/andreasstove999/screenmerch-go/internal/middleware"
	"github.com/andreasstove999/screenmerch-go/internal/payment"
	"github.com/andreasstove999/screenmerch-go/internal/screenshot"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

// dismissAfter is how long clients show a capture failure before hiding it.
const dismissAfter = 3 * time.Second

// CheckoutSessions creates and looks up checkout sessions.
type CheckoutSessions interface {
	CreateSession(ctx context.Context, p checkout.Payload) (checkout.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*checkout.Session, error)
}

// HealthProbe is a named readiness check of a dependency.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

type Deps struct {
	Screenshots *screenshot.Service
	Capturer    capture.Capturer
	Carts       cart.Repository
	Assembler   *checkout.Assembler
	Checkout    CheckoutSessions
	Quoter      shipping.Quoter
	Probes      []HealthProbe
	Logger      *zap.Logger
}

type Handler struct {
	screenshots *screenshot.Service
	capturer    capture.Capturer
	carts       cart.Repository
	assembler   *checkout.Assembler
	checkout    CheckoutSessions
	quoter      shipping.Quoter
	probes      []HealthProbe
	logger      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		screenshots: d.Screenshots,
		capturer:    d.Capturer,
		carts:       d.Carts,
		assembler:   d.Assembler,
		checkout:    d.Checkout,
		quoter:      d.Quoter,
		probes:      d.Probes,
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "screenmerch"})
}

type probeResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Ready runs every probe concurrently and answers 503 when any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	results := make([]probeResult, len(h.probes))
	var wg sync.WaitGroup
	wg.Add(len(h.probes))
	for i := range h.probes {
		go func() {
			defer wg.Done()
			res := probeResult{Name: h.probes[i].Name, OK: true}
			if err := h.probes[i].Check(ctx); err != nil {
				res.OK, res.Error = false, err.Error()
			}
			results[i] = res
		}()
	}
	wg.Wait()

	status, state := http.StatusOK, "ok"
	for _, res := range results {
		if !res.OK {
			status, state = http.StatusServiceUnavailable, "degraded"
			break
		}
	}
	writeJSON(w, status, map[string]any{"status": state, "dependencies": results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

type captureErrorResponse struct {
	middleware.ErrorResponse
	DismissAfterMS int64 `json:"dismiss_after_ms"`
}

// writeDomainError maps package sentinel errors onto status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	if errors.Is(err, capture.ErrCaptureUnavailable) {
		writeJSON(w, status, captureErrorResponse{
			ErrorResponse: middleware.ErrorResponse{
				Error:         "Could not capture a screenshot. Please try again.",
				CorrelationID: middleware.GetCorrelationID(r.Context()),
			},
			DismissAfterMS: dismissAfter.Milliseconds(),
		})
		return
	}
	writeError(w, r, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, capture.ErrCaptureUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, capture.ErrInvalidRequest),
		errors.Is(err, imaging.ErrInvalidCrop),
		errors.Is(err, imaging.ErrInvalidDataURL),
		errors.Is(err, geometry.ErrInvalidSize),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidPayload),
		errors.Is(err, shipping.ErrInvalidAddress),
		errors.Is(err, shipping.ErrNoItems):
		return http.StatusBadRequest

	case errors.Is(err, screenshot.ErrSessionNotFound),
		errors.Is(err, screenshot.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, checkout.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, screenshot.ErrSessionFull),
		errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, capture.ErrNotReady):
		return http.StatusConflict

	case errors.Is(err, capture.ErrCaptureFailed),
		errors.Is(err, shipping.ErrQuoteFailed),
		errors.Is(err, payment.ErrProviderFailed),
		errors.Is(err, clients.ErrCircuitOpen):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// Frames and crops arrive as data URLs.
const maxBodyBytes = 32 << 20
