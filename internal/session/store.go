// Package session implements the opaque-token session store backing
// authentication. Tokens live in Redis and expire after a fixed TTL; expiry
// is enforced by the store itself, never re-validated per request.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TTL is the fixed session lifetime. A user may hold any number of
// concurrent sessions.
const TTL = 7 * 24 * time.Hour

const keyPrefix = "session:"

// ErrNotFound is returned when a token has no live session.
var ErrNotFound = errors.New("session not found")

// Store maps opaque session tokens to user ids.
type Store interface {
	// Create issues a fresh token for the user.
	Create(ctx context.Context, userID string) (string, error)
	// Resolve returns the user id owning the token, or ErrNotFound.
	Resolve(ctx context.Context, token string) (string, error)
	// Delete removes the session. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}

// RedisStore is the Redis-backed Store implementation.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+token, userID, TTL).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	return userID, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
