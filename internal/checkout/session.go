package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const StatusOpen = "open"

// Session is a checkout session created with the payment provider.
type Session struct {
	ID                uuid.UUID `json:"id"`
	SessionID         string    `json:"session_id"`
	ProviderSessionID string    `json:"provider_session_id"`
	URL               string    `json:"url"`
	Status            string    `json:"status"`
	Subtotal          float64   `json:"subtotal"`
	ShippingCost      float64   `json:"shipping_cost"`
	Total             float64   `json:"total"`
	Currency          string    `json:"currency"`
	Payload           Payload   `json:"payload"`
	CreatedAt         time.Time `json:"created_at"`
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s.Payload)
	if err != nil {
		return fmt.Errorf("encode checkout payload: %w", err)
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO checkout_sessions
			(id, session_id, provider_session_id, url, status, subtotal, shipping_cost, total, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING created_at
	`, s.ID, s.SessionID, s.ProviderSessionID, s.URL, s.Status, s.Subtotal, s.ShippingCost, s.Total, raw,
	).Scan(&s.CreatedAt)
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	var (
		s   Session
		raw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, provider_session_id, url, status, subtotal, shipping_cost, total, payload, created_at
		FROM checkout_sessions
		WHERE id=$1
	`, id).Scan(&s.ID, &s.SessionID, &s.ProviderSessionID, &s.URL, &s.Status,
		&s.Subtotal, &s.ShippingCost, &s.Total, &raw, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &s.Payload); err != nil {
		return nil, fmt.Errorf("decode checkout payload: %w", err)
	}
	s.Currency = s.Payload.Currency
	return &s, nil
}
