package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/middleware"
)

type RouterOptions struct {
	CORSAllowOrigins []string
	// RequestTimeout bounds every request; zero disables it.
	RequestTimeout time.Duration
}

func NewRouter(h *Handler, logger *zap.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(opts.CORSAllowOrigins))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.Health)
	r.Get("/health/ready", h.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Post("/capture-screenshot", h.CaptureScreenshot)
		r.Post("/crop", h.Crop)
		r.Post("/calculate-shipping", h.CalculateShipping)
		r.Post("/create-checkout-session", h.CreateCheckoutSession)
		r.Get("/checkout-sessions/{checkoutSessionId}", h.GetCheckoutSession)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Post("/screenshots", h.AddScreenshot)
				r.Delete("/screenshots/{screenshotId}", h.RemoveScreenshot)
				r.Put("/pending-merch", h.SetPendingMerch)
				r.Delete("/pending-merch", h.ClearPendingMerch)
			})
		})

		r.Route("/cart/{sessionId}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.DeleteCart)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{itemId}", h.UpdateCartItem)
			r.Delete("/items/{itemId}", h.RemoveCartItem)
			r.Post("/checkout", h.CheckoutCart)
		})
	})

	return r
}
