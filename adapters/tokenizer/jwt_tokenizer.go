package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

const AudienceSession = "authsvc:session"

// DefaultIssuer is used when NewJWTTokenizer is given an empty issuer.
const DefaultIssuer = "authsvc"

// MinSecretLength is the minimum HS256 secret size in bytes.
const MinSecretLength = 32

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	issuer string
	clock  core.Clock
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(secret []byte, issuer string, clock core.Clock) (ports.Tokenizer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &JWTTokenizer{secret: secret, issuer: issuer, clock: clock}, nil
}

// Issue signs claims into a compact JWT
func (j *JWTTokenizer) Issue(claims core.SessionClaims) (string, error) {
	if claims.Subject.IsZero() {
		return "", fmt.Errorf("%w: session claims without subject", core.ErrUnexpected)
	}

	jc := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   claims.Subject.String(),
			ID:        claims.ID,
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign session token: %v", core.ErrUnexpected, err)
	}

	return signedToken, nil
}

// Verify parses a session token and returns its claims
func (j *JWTTokenizer) Verify(tokenStr string) (core.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AudienceSession),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return core.SessionClaims{}, fmt.Errorf("%w: token expired", core.ErrInvalidToken)
		}
		return core.SessionClaims{}, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return core.SessionClaims{}, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return core.SessionClaims{}, fmt.Errorf("%w: invalid claims type", core.ErrInvalidToken)
	}

	if claims.ID == "" {
		return core.SessionClaims{}, fmt.Errorf("%w: missing token id", core.ErrInvalidToken)
	}

	subject, err := core.ParseEmail(claims.Subject)
	if err != nil {
		return core.SessionClaims{}, fmt.Errorf("%w: invalid subject", core.ErrInvalidToken)
	}

	session := core.SessionClaims{
		Subject:   subject,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}

	return session, nil
}
