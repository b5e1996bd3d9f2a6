package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// DefaultChallengeTTL is how long a two-factor challenge stays valid.
const DefaultChallengeTTL = 600 * time.Second

// MemoryChallengeStore is an in-memory implementation of ChallengeStore
type MemoryChallengeStore struct {
	challenges map[core.Email]core.Challenge
	ttl        time.Duration
	clock      core.Clock
	mu         sync.RWMutex
}

// NewMemoryChallengeStore creates a new in-memory challenge store. A
// non-positive ttl selects DefaultChallengeTTL.
func NewMemoryChallengeStore(ttl time.Duration, clock core.Clock) ports.ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &MemoryChallengeStore{
		challenges: make(map[core.Email]core.Challenge),
		ttl:        ttl,
		clock:      clock,
	}
}

// Issue stores a challenge for email, replacing any pending one
func (s *MemoryChallengeStore) Issue(ctx context.Context, email core.Email, attemptID core.LoginAttemptID, code core.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for e, c := range s.challenges {
		if c.Expired(now) {
			delete(s.challenges, e)
		}
	}

	s.challenges[email] = core.Challenge{
		AttemptID: attemptID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	}
	return nil
}

// Lookup returns the pending challenge for email
func (s *MemoryChallengeStore) Lookup(ctx context.Context, email core.Email) (core.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenge, ok := s.challenges[email]
	if !ok || challenge.Expired(s.clock.Now()) {
		return core.Challenge{}, core.ErrChallengeNotFound
	}
	return challenge, nil
}

// Invalidate removes the pending challenge for email, if any
func (s *MemoryChallengeStore) Invalidate(ctx context.Context, email core.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, email)
	return nil
}
