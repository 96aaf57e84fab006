package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/screenmerch-go/internal/cart"
	"github.com/andreasstove999/screenmerch-go/internal/payment"
	"github.com/andreasstove999/screenmerch-go/internal/shipping"
)

type EventPublisher interface {
	PublishCheckoutSessionCreated(ctx context.Context, s Session) error
}

type ServiceOptions struct {
	SuccessURL string
	CancelURL  string
}

// Service creates checkout sessions. Totals sent by the client are recomputed.
type Service struct {
	quoter    shipping.Quoter
	provider  payment.Provider
	repo      Repository
	publisher EventPublisher
	opts      ServiceOptions
	logger    *zap.Logger
}

func NewService(quoter shipping.Quoter, provider payment.Provider, repo Repository, publisher EventPublisher, opts ServiceOptions, logger *zap.Logger) *Service {
	return &Service{
		quoter:    quoter,
		provider:  provider,
		repo:      repo,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) CreateSession(ctx context.Context, p Payload) (Session, error) {
	p.ShippingAddress = p.ShippingAddress.Normalize()
	if err := p.Validate(); err != nil {
		return Session{}, err
	}

	quote, err := s.quoter.Quote(ctx, p.ShippingAddress, shippingItems(p.Items))
	if err != nil {
		return Session{}, err
	}

	subtotal := Subtotal(p.Items)
	total := cart.RoundCents(subtotal + quote.Cost)
	if p.Total != 0 && p.Total != total {
		s.logger.Info("client checkout total differs from recomputed total",
			zap.String("session_id", p.SessionID),
			zap.Float64("client_total", p.Total),
			zap.Float64("total", total),
		)
	}
	p.Subtotal, p.ShippingCost, p.Total, p.Currency = subtotal, quote.Cost, total, quote.Currency

	id := uuid.New()
	ps, err := s.provider.CreateCheckoutSession(ctx, s.sessionRequest(id, p))
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		ID:                id,
		SessionID:         p.SessionID,
		ProviderSessionID: ps.ID,
		URL:               ps.URL,
		Status:            StatusOpen,
		Subtotal:          subtotal,
		ShippingCost:      quote.Cost,
		Total:             total,
		Currency:          p.Currency,
		Payload:           p,
	}
	if err := s.repo.Create(ctx, &sess); err != nil {
		return Session{}, fmt.Errorf("store checkout session: %w", err)
	}

	if err := s.publisher.PublishCheckoutSessionCreated(ctx, sess); err != nil {
		s.logger.Error("failed to publish CheckoutSessionCreated",
			zap.String("checkout_session_id", sess.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("checkout session created",
		zap.String("checkout_session_id", sess.ID.String()),
		zap.String("session_id", sess.SessionID),
		zap.Float64("total", sess.Total),
	)
	return sess, nil
}

// Submit lets the service act as the in-process Submitter of an Assembler.
func (s *Service) Submit(ctx context.Context, p Payload) (SubmitResult, error) {
	sess, err := s.CreateSession(ctx, p)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{SessionID: sess.ID.String(), URL: sess.URL}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) sessionRequest(id uuid.UUID, p Payload) payment.SessionRequest {
	req := payment.SessionRequest{
		ClientReferenceID: id.String(),
		Currency:          strings.ToLower(p.Currency),
		ShippingCents:     payment.ToCents(p.ShippingCost),
		SuccessURL:        s.opts.SuccessURL,
		CancelURL:         s.opts.CancelURL,
		Metadata:          map[string]string{"session_id": p.SessionID},
	}
	for _, l := range p.Items {
		name := l.Product.Name
		if desc := variantDescription(l.Variants); desc != "" {
			name += " (" + desc + ")"
		}
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:        name,
			ImageURL:    l.Product.Image,
			AmountCents: payment.ToCents(l.Price),
			Quantity:    l.Quantity,
		})
	}
	return req
}

func variantDescription(v cart.Variant) string {
	parts := make([]string, 0, 2)
	if v.Color != "" {
		parts = append(parts, v.Color)
	}
	if v.Size != "" {
		parts = append(parts, v.Size)
	}
	return strings.Join(parts, " / ")
}
