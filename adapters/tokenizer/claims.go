package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}
