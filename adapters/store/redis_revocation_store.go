package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "authsvc:banned_token:"

// RedisRevocationStore is a Redis implementation of RevocationStore.
// Entries carry a native TTL equal to the token's remaining validity.
type RedisRevocationStore struct {
	client  redis.UniversalClient
	prefix  string
	clock   core.Clock
	timeout time.Duration
}

// NewRedisRevocationStore creates a new Redis revocation store. A positive
// timeout bounds every Redis round trip.
func NewRedisRevocationStore(client redis.UniversalClient, clock core.Clock, timeout time.Duration) ports.RevocationStore {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &RedisRevocationStore{
		client:  client,
		prefix:  revocationKeyPrefix,
		clock:   clock,
		timeout: timeout,
	}
}

// Revoke marks a token as revoked in Redis
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	// Set key with expiration
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: revoke token: %v", core.ErrStoreUnavailable, err)
	}

	return nil
}

// IsRevoked checks if a token is revoked in Redis
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	// Check if key exists
	val, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check revoked token: %v", core.ErrStoreUnavailable, err)
	}

	return val > 0, nil
}
