package ports

import "github.com/layer-3/authsvc/core"

// Tokenizer signs and verifies session tokens. It keeps no state and never
// consults the revocation store.
type Tokenizer interface {
	Issue(claims core.SessionClaims) (string, error)
	// Verify fails with core.ErrInvalidToken on a bad signature, malformed
	// token or expired claims.
	Verify(token string) (core.SessionClaims, error)
}
