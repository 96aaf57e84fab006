package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeScreenshotUpgraded = "ScreenshotUpgraded"
	screenshotUpgradedSchema    = "screenmerch.screenshot.upgraded.v1"
)

// ScreenshotUpgradedPayload reports the outcome of a print-quality upgrade, successful or not.
type ScreenshotUpgradedPayload struct {
	SessionID    string    `json:"sessionId"`
	ScreenshotID string    `json:"screenshotId"`
	VideoURL     string    `json:"videoUrl"`
	Timestamp    float64   `json:"timestamp"`
	Succeeded    bool      `json:"succeeded"`
	Reason       string    `json:"reason,omitempty"`
	StorageURL   string    `json:"storageUrl,omitempty"`
	FinishedAt   time.Time `json:"finishedAt"`
}

type ScreenshotUpgradedEvent struct {
	EventEnvelope
	Payload ScreenshotUpgradedPayload `json:"payload"`
}

func newScreenshotUpgradedEvent(meta EventMeta, seq int64, producer string, payload ScreenshotUpgradedPayload, occurredAt time.Time) ScreenshotUpgradedEvent {
	return ScreenshotUpgradedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeScreenshotUpgraded,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			Producer:      producer,
			PartitionKey:  meta.PartitionKey,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        screenshotUpgradedSchema,
		},
		Payload: payload,
	}
}
