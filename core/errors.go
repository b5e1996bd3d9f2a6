package core

import "errors"

// Errors surfaced by the auth flows. Callers match them with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrMissingToken         = errors.New("missing token")
	ErrInvalidToken         = errors.New("invalid token")
	ErrBannedToken          = errors.New("token has been revoked")
	ErrUnexpected           = errors.New("unexpected error")
	ErrUserAlreadyExists    = errors.New("user already exists")
)

// Errors returned by store and delivery adapters.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrChallengeNotFound  = errors.New("two-factor challenge not found")
	ErrStoreUnavailable   = errors.New("store backend unavailable")
	ErrDeliveryFailed     = errors.New("code delivery failed")
)
