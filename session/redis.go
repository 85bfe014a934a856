package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore persists sessions as JSON blobs in Redis, one key per user.
// A TTL reaps sessions abandoned mid-flow; every Put refreshes it.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

const defaultTTL = 24 * time.Hour

// NewRedisStore creates a session store backed by the given Redis client.
// A non-positive ttl falls back to 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &redisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (r *redisStore) Get(ctx context.Context, userID int64) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session for user %d: %w", userID, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session for user %d: %w", userID, err)
	}
	if s.Scratch == nil {
		s.Scratch = make(Scratch)
	}
	return &s, nil
}

func (r *redisStore) Put(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session for user %d: %w", s.UserID, err)
	}
	if err := r.client.Set(ctx, sessionKey(s.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session for user %d: %w", s.UserID, err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session for user %d: %w", userID, err)
	}
	return nil
}
