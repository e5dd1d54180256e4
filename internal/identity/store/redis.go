package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clubgate/internal/identity"
	"clubgate/pkg/platform/sentinel"
)

const identityKeyPrefix = "clubgate:identity:"

// RedisStore is the production-recommended identity store for deployments
// where the gateway restarts or runs more than one instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Read(ctx context.Context, sessionID string) (identity.Identity, error) {
	raw, err := s.client.Get(ctx, identityKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return identity.Identity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("read identity: %w", err)
	}
	var ident identity.Identity
	if err := json.Unmarshal(raw, &ident); err != nil {
		return identity.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return ident, nil
}

func (s *RedisStore) Write(ctx context.Context, sessionID string, ident identity.Identity) error {
	raw, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.client.Set(ctx, identityKeyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

// Clear deletes the identity with a single DEL so the removal is observable
// immediately by every reader.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, identityKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
