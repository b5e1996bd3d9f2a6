package authsvc

import (
	"context"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/service"
)

// Client represents the public interface for interacting with the auth service
type Client interface {
	// Signup registers a principal
	Signup(ctx context.Context, email, password string, requires2FA bool) error

	// Login checks credentials and returns a session or a pending
	// two-factor challenge
	Login(ctx context.Context, email, password string) (service.LoginResult, error)

	// VerifyTwoFactor completes a pending login
	VerifyTwoFactor(ctx context.Context, email, attemptID, code string) (service.LoginResult, error)

	// Logout revokes the session token
	Logout(ctx context.Context, token string) error

	// VerifyToken returns the claims of a live session token
	VerifyToken(ctx context.Context, token string) (core.SessionClaims, error)
}

var _ Client = (*service.AuthService)(nil)
