package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCheckoutSessionCreated = "CheckoutSessionCreated"
	checkoutSessionCreatedSchema    = "screenmerch.checkout.session.created.v1"
)

type CheckoutSessionCreatedPayload struct {
	CheckoutSessionID string         `json:"checkoutSessionId"`
	SessionID         string         `json:"sessionId"`
	ProviderSessionID string         `json:"providerSessionId"`
	Subtotal          float64        `json:"subtotal"`
	ShippingCost      float64        `json:"shippingCost"`
	Total             float64        `json:"total"`
	Currency          string         `json:"currency"`
	CountryCode       string         `json:"countryCode"`
	Items             []CheckoutLine `json:"items"`
	CreatedAt         time.Time      `json:"createdAt"`
}

type CheckoutLine struct {
	ProductID          string  `json:"productId"`
	Quantity           int     `json:"quantity"`
	Price              float64 `json:"price"`
	SelectedScreenshot string  `json:"selectedScreenshot,omitempty"`
}

type CheckoutSessionCreatedEvent struct {
	EventEnvelope
	Payload CheckoutSessionCreatedPayload `json:"payload"`
}

func newCheckoutSessionCreatedEvent(meta EventMeta, seq int64, producer string, payload CheckoutSessionCreatedPayload, occurredAt time.Time) CheckoutSessionCreatedEvent {
	return CheckoutSessionCreatedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeCheckoutSessionCreated,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			Producer:      producer,
			PartitionKey:  meta.PartitionKey,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        checkoutSessionCreatedSchema,
		},
		Payload: payload,
	}
}
