package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, sessionID string) (*Cart, error) {
	var (
		c   Cart
		raw []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, items, updated_at FROM carts WHERE session_id=$1`, sessionID,
	).Scan(&c.SessionID, &raw, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (r *PostgresRepository) Save(ctx context.Context, c *Cart) error {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO carts (session_id, items, subtotal, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id) DO UPDATE
		SET items = EXCLUDED.items, subtotal = EXCLUDED.subtotal, updated_at = now()
		RETURNING updated_at
	`, c.SessionID, raw, c.Subtotal()).Scan(&c.UpdatedAt)
}

func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE session_id=$1`, sessionID)
	return err
}
