package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// MemoryRevocationStore is an in-memory implementation of RevocationStore.
// Entries are checked against their expiry on read and pruned on write.
type MemoryRevocationStore struct {
	revoked map[string]time.Time
	clock   core.Clock
	mu      sync.RWMutex
}

// NewMemoryRevocationStore creates a new in-memory revocation store
func NewMemoryRevocationStore(clock core.Clock) ports.RevocationStore {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &MemoryRevocationStore{
		revoked: make(map[string]time.Time),
		clock:   clock,
	}
}

// Revoke marks a token id as revoked until expiresAt
func (s *MemoryRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.pruneLocked(now)

	if !expiresAt.After(now) {
		// Already unusable.
		return nil
	}

	// Never shorten an existing entry.
	if current, ok := s.revoked[tokenID]; ok && current.After(expiresAt) {
		return nil
	}
	s.revoked[tokenID] = expiresAt

	return nil
}

// IsRevoked checks if a token is revoked
func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, exists := s.revoked[tokenID]
	if !exists {
		return false, nil
	}

	return s.clock.Now().Before(expiresAt), nil
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}

func (s *MemoryRevocationStore) pruneLocked(now time.Time) {
	for id, expiresAt := range s.revoked {
		if !now.Before(expiresAt) {
			delete(s.revoked, id)
		}
	}
}
