package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrEmptyPartitionKey is returned for a blank partition key; events without an owner
// would otherwise share one global counter.
var ErrEmptyPartitionKey = errors.New("sequence: partition key is required")

type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository numbers the events of one capture session (or one standalone checkout) so
// consumers can order ScreenshotUpgraded and CheckoutSessionCreated relative to each other.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

const nextSequenceSQL = `
	INSERT INTO event_sequence (partition_key, last_sequence)
	VALUES ($1, 1)
	ON CONFLICT (partition_key)
	DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = now()
	RETURNING last_sequence`

// NextSequence atomically increments and returns the next sequence for a partition, starting at 1.
func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	key := strings.TrimSpace(partitionKey)
	if key == "" {
		return 0, ErrEmptyPartitionKey
	}

	var seq int64
	if err := r.store.QueryRow(ctx, nextSequenceSQL, key).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", key, err)
	}
	return seq, nil
}
