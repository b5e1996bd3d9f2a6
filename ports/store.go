package ports

import (
	"context"
	"time"

	"github.com/layer-3/authsvc/core"
)

// RevocationStore records session tokens that must never be accepted again.
// Entries are keyed by the token id (jti), not the encoded token.
type RevocationStore interface {
	// Revoke denylists tokenID until expiresAt. Revoking twice is not an error.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ChallengeStore holds at most one pending two-factor challenge per principal.
type ChallengeStore interface {
	// Issue overwrites any pending challenge for email.
	Issue(ctx context.Context, email core.Email, attemptID core.LoginAttemptID, code core.TwoFACode) error
	// Lookup returns the pending challenge without removing it, or
	// core.ErrChallengeNotFound when nothing unexpired is pending.
	Lookup(ctx context.Context, email core.Email) (core.Challenge, error)
	Invalidate(ctx context.Context, email core.Email) error
}

// UserStore persists principals and verifies their credentials.
type UserStore interface {
	AddUser(ctx context.Context, user core.User) error
	GetUser(ctx context.Context, email core.Email) (core.User, error)
	// ValidateUser returns core.ErrUserNotFound or core.ErrInvalidCredentials
	// when the password does not authenticate email.
	ValidateUser(ctx context.Context, email core.Email, password core.Password) error
}
