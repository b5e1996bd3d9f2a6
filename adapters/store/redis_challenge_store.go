package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "authsvc:two_fa_code:"

type challengeRecord struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Code           string `json:"code"`
	ExpiresAt      int64  `json:"expires_at"` // unix milliseconds
}

// RedisChallengeStore is a Redis implementation of ChallengeStore. Records
// carry both a native TTL and a stamped expiry that is checked on read.
type RedisChallengeStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	clock   core.Clock
	timeout time.Duration
}

// NewRedisChallengeStore creates a new Redis challenge store
func NewRedisChallengeStore(client redis.UniversalClient, ttl time.Duration, clock core.Clock, timeout time.Duration) ports.ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &RedisChallengeStore{
		client:  client,
		prefix:  challengeKeyPrefix,
		ttl:     ttl,
		clock:   clock,
		timeout: timeout,
	}
}

func (s *RedisChallengeStore) key(email core.Email) string {
	return s.prefix + email.String()
}

// Issue stores a challenge for email, replacing any pending one
func (s *RedisChallengeStore) Issue(ctx context.Context, email core.Email, attemptID core.LoginAttemptID, code core.TwoFACode) error {
	record := challengeRecord{
		LoginAttemptID: attemptID.String(),
		Code:           code.String(),
		ExpiresAt:      s.clock.Now().Add(s.ttl).UnixMilli(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encode challenge: %v", core.ErrUnexpected, err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(email), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: store challenge: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Lookup returns the pending challenge for email without removing it
func (s *RedisChallengeStore) Lookup(ctx context.Context, email core.Email) (core.Challenge, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.Challenge{}, core.ErrChallengeNotFound
		}
		return core.Challenge{}, fmt.Errorf("%w: load challenge: %v", core.ErrStoreUnavailable, err)
	}

	var record challengeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return core.Challenge{}, fmt.Errorf("%w: decode challenge: %v", core.ErrUnexpected, err)
	}

	attemptID, err := core.ParseLoginAttemptID(record.LoginAttemptID)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("%w: stored attempt id: %v", core.ErrUnexpected, err)
	}
	code, err := core.ParseTwoFACode(record.Code)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("%w: stored code: %v", core.ErrUnexpected, err)
	}

	challenge := core.Challenge{
		AttemptID: attemptID,
		Code:      code,
		ExpiresAt: time.UnixMilli(record.ExpiresAt),
	}
	if challenge.Expired(s.clock.Now()) {
		return core.Challenge{}, core.ErrChallengeNotFound
	}
	return challenge, nil
}

// Invalidate deletes the pending challenge for email
func (s *RedisChallengeStore) Invalidate(ctx context.Context, email core.Email) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: delete challenge: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
