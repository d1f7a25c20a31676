package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/planner-suite/backend/internal/models"
)

const keyPrefix = "session:"

// Record is a session at rest. The refresh token is stored only as a
// bcrypt hash.
type Record struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Role        models.Role `json:"role"`
	RefreshHash string      `json:"refresh_hash"`
	ExpiresAt   int64       `json:"expires_at"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Store persists session records.
type Store interface {
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisStore keeps session records in Redis with a TTL equal to the
// session's absolute max age.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save writes the record under session:{id} with the given TTL.
func (s *RedisStore) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+rec.ID.String(), body, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Get returns the record for id, or a not-found kind when absent.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, Errorf(KindNotFound, "session %s not found", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Delete removes the record for id. Deleting an absent session is not an
// error.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
