package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cached pages between service instances. Redis expires
// keys on its own; the stored timestamp is still checked so an entry is never
// served past its TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    Clock
}

// NewRedisStore wraps an existing client. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", false, fmt.Errorf("decode cache entry: %w", err)
	}
	if !entry.Fresh(s.now()) {
		return "", false, nil
	}
	return entry.Body, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, body string, ttl time.Duration) error {
	payload, err := json.Marshal(Entry{Key: key, StoredAt: s.now(), TTL: ttl, Body: body})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the connection for health reporting.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
