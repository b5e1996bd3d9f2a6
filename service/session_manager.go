package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// DefaultTokenTTL is the validity window of a freshly issued session token.
const DefaultTokenTTL = 600 * time.Second

// SessionManager issues, verifies and revokes session tokens
type SessionManager struct {
	tokenizer   ports.Tokenizer
	revocations ports.RevocationStore
	clock       core.Clock
	ttl         time.Duration
}

// NewSessionManager creates a new session manager
func NewSessionManager(tokenizer ports.Tokenizer, revocations ports.RevocationStore, clock core.Clock, ttl time.Duration) *SessionManager {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &SessionManager{
		tokenizer:   tokenizer,
		revocations: revocations,
		clock:       clock,
		ttl:         ttl,
	}
}

// TTL returns the session validity window.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// IssueSession signs a new token for email expiring TTL from now.
func (m *SessionManager) IssueSession(ctx context.Context, email core.Email) (string, core.SessionClaims, error) {
	if email.IsZero() {
		return "", core.SessionClaims{}, fmt.Errorf("%w: empty principal", core.ErrInvalidInput)
	}

	// Tokens carry second precision.
	now := m.clock.Now().UTC().Truncate(time.Second)
	claims := core.SessionClaims{
		Subject:   email,
		ID:        uuid.New().String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token, err := m.tokenizer.Issue(claims)
	if err != nil {
		return "", core.SessionClaims{}, err
	}
	return token, claims, nil
}

// VerifySession accepts a token only if it verifies and its id is not on
// the denylist. A signed, unexpired but revoked token yields ErrBannedToken.
// A revocation store failure is treated as a rejection.
func (m *SessionManager) VerifySession(ctx context.Context, token string) (core.SessionClaims, error) {
	if token == "" {
		return core.SessionClaims{}, core.ErrMissingToken
	}

	// The denylist is keyed by jti, so any encoding of a revoked token
	// lands on the same entry.
	claims, err := m.tokenizer.Verify(token)
	if err != nil {
		return core.SessionClaims{}, err
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return core.SessionClaims{}, fmt.Errorf("%w: revocation check: %v", core.ErrUnexpected, err)
	}
	if revoked {
		return core.SessionClaims{}, core.ErrBannedToken
	}

	return claims, nil
}

// RevokeSession denylists a well-formed, unexpired token until its natural
// expiry. Revoking an already revoked token succeeds.
func (m *SessionManager) RevokeSession(ctx context.Context, token string) (core.SessionClaims, error) {
	if token == "" {
		return core.SessionClaims{}, core.ErrMissingToken
	}

	claims, err := m.tokenizer.Verify(token)
	if err != nil {
		return core.SessionClaims{}, err
	}

	if err := m.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		if errors.Is(err, core.ErrUnexpected) {
			return core.SessionClaims{}, err
		}
		return core.SessionClaims{}, fmt.Errorf("%w: revoke token: %v", core.ErrUnexpected, err)
	}
	return claims, nil
}
