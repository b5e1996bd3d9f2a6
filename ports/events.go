package ports

import (
	"context"

	"github.com/layer-3/authsvc/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogout(ctx context.Context, email core.Email, tokenID string) error
}

// CodeSender delivers a two-factor code to its principal out of band.
type CodeSender interface {
	SendCode(ctx context.Context, email core.Email, code core.TwoFACode) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password core.Password) (string, error)
	Verify(password core.Password, encodedHash string) (bool, error)
}
