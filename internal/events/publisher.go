package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/screenmerch-go/internal/checkout"
	"github.com/andreasstove999/screenmerch-go/internal/middleware"
	"github.com/andreasstove999/screenmerch-go/internal/screenshot"
)

type channel interface {
	exchangeDeclarer
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type Publisher struct {
	ch                 channel
	seqRepo            Sequencer
	producerIdentifier string
	now                func() time.Time
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, seqRepo Sequencer, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(ch, seqRepo, opts)
}

func newPublisher(ch channel, seqRepo Sequencer, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = defaultProducer
	}

	return &Publisher{
		ch:                 ch,
		seqRepo:            seqRepo,
		producerIdentifier: producer,
		now:                func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func metaFor(ctx context.Context, partitionKey string) EventMeta {
	return EventMeta{
		CorrelationID: middleware.GetCorrelationID(ctx),
		PartitionKey:  partitionKey,
	}
}

func (p *Publisher) PublishCheckoutSessionCreated(ctx context.Context, s checkout.Session) error {
	payload := CheckoutSessionCreatedPayload{
		CheckoutSessionID: s.ID.String(),
		SessionID:         s.SessionID,
		ProviderSessionID: s.ProviderSessionID,
		Subtotal:          s.Subtotal,
		ShippingCost:      s.ShippingCost,
		Total:             s.Total,
		Currency:          s.Currency,
		CountryCode:       s.Payload.ShippingAddress.CountryCode,
		CreatedAt:         s.CreatedAt,
	}
	for _, l := range s.Payload.Items {
		payload.Items = append(payload.Items, CheckoutLine{
			ProductID:          l.Product.ID,
			Quantity:           l.Quantity,
			Price:              l.Price,
			SelectedScreenshot: l.SelectedScreenshot,
		})
	}

	// checkouts created without a capture session are sequenced on their own id
	partition := s.SessionID
	if partition == "" {
		partition = s.ID.String()
	}
	meta := metaFor(ctx, partition)
	seq, err := p.seqRepo.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newCheckoutSessionCreatedEvent(meta, seq, p.producerIdentifier, payload, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CheckoutSessionCreated envelope: %w", err)
	}

	return p.publishJSON(ctx, CheckoutSessionCreatedRoutingKey, body)
}

func (p *Publisher) PublishScreenshotUpgraded(ctx context.Context, o screenshot.UpgradeOutcome) error {
	payload := ScreenshotUpgradedPayload{
		SessionID:    o.SessionID,
		ScreenshotID: o.ScreenshotID,
		VideoURL:     o.VideoURL,
		Timestamp:    o.Timestamp,
		Succeeded:    o.Succeeded,
		Reason:       o.Reason,
		StorageURL:   o.StorageURL,
		FinishedAt:   o.FinishedAt,
	}

	meta := metaFor(ctx, o.SessionID)
	seq, err := p.seqRepo.NextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := newScreenshotUpgradedEvent(meta, seq, p.producerIdentifier, payload, p.now())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal ScreenshotUpgraded envelope: %w", err)
	}

	return p.publishJSON(ctx, ScreenshotUpgradedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NoopPublisher drops every event. It is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCheckoutSessionCreated(context.Context, checkout.Session) error {
	return nil
}

func (NoopPublisher) PublishScreenshotUpgraded(context.Context, screenshot.UpgradeOutcome) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
