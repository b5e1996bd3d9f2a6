package core

import (
	"crypto/subtle"
	"time"
)

// Challenge is a pending two-factor challenge for one principal.
type Challenge struct {
	AttemptID LoginAttemptID // Correlation handle returned to the client
	Code      TwoFACode      // Code delivered out of band
	ExpiresAt time.Time      // Entry behaves as absent from this instant on
}

// Expired reports whether the challenge is no longer usable at now.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Matches compares the submitted attempt id and code with the stored ones.
// The code is compared in constant time.
func (c Challenge) Matches(attemptID LoginAttemptID, code TwoFACode) bool {
	codeOK := subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1
	return c.AttemptID == attemptID && codeOK
}

// SessionClaims are the claims embedded in a session token.
type SessionClaims struct {
	Subject   Email     // Authenticated principal
	ID        string    // Unique token identifier (jti)
	IssuedAt  time.Time // When the token was issued
	ExpiresAt time.Time // Token is rejected from this instant on
}

// User is a principal as held by the user store.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
}
