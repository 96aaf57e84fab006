package screenshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 10

var ErrConflict = errors.New("screenshot: concurrent update conflict")

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps session state as one JSON document per session.
// Update uses WATCH/MULTI so concurrent writers never lose each other's changes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	return r.load(ctx, r.client, sessionID)
}

func (r *RedisStore) Save(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(st.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Update(ctx context.Context, sessionID string, fn func(*State) error) (State, error) {
	key := sessionKey(sessionID)

	var out State
	txf := func(tx *redis.Tx) error {
		st, err := r.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(&st); err != nil {
			return err
		}
		st.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("marshal session failed: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			out = st
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return State{}, err
	}
	return State{}, ErrConflict
}

func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) load(ctx context.Context, c getter, sessionID string) (State, error) {
	data, err := c.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get failed: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return st, nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("screenmerch:session:%s", sessionID)
}
