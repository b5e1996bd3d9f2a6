package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifySession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	email := core.MustParseEmail("a@b.com")

	token, claims, err := h.sessions.IssueSession(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, email, claims.Subject)
	assert.Equal(t, DefaultTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt))

	got, err := h.sessions.VerifySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}

func TestSessionsAreUnique(t *testing.T) {
	h := newHarness(t)
	email := core.MustParseEmail("a@b.com")

	first, _, err := h.sessions.IssueSession(context.Background(), email)
	require.NoError(t, err)
	second, _, err := h.sessions.IssueSession(context.Background(), email)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSessionExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, _, err := h.sessions.IssueSession(ctx, core.MustParseEmail("a@b.com"))
	require.NoError(t, err)

	h.clock.Advance(DefaultTokenTTL - time.Second)
	_, err = h.sessions.VerifySession(ctx, token)
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	_, err = h.sessions.VerifySession(ctx, token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestRevokedSessionIsBanned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, claims, err := h.sessions.IssueSession(ctx, core.MustParseEmail("a@b.com"))
	require.NoError(t, err)

	revoked, err := h.sessions.RevokeSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, claims, revoked)

	_, err = h.sessions.VerifySession(ctx, token)
	assert.ErrorIs(t, err, core.ErrBannedToken)

	// The codec alone still accepts it.
	_, err = h.tokenizer.Verify(token)
	assert.NoError(t, err)

	_, err = h.sessions.RevokeSession(ctx, token)
	assert.NoError(t, err, "revoking twice is not an error")
}

func TestRevokeRejectsMalformedToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.sessions.RevokeSession(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	_, err = h.sessions.RevokeSession(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingToken)
}

func TestVerifySessionFailsClosed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, _, err := h.sessions.IssueSession(ctx, core.MustParseEmail("a@b.com"))
	require.NoError(t, err)

	broken := NewSessionManager(h.tokenizer, brokenRevocationStore{}, h.clock, 0)
	_, err = broken.VerifySession(ctx, token)
	assert.ErrorIs(t, err, core.ErrUnexpected)

	_, err = broken.RevokeSession(ctx, token)
	assert.ErrorIs(t, err, core.ErrUnexpected)
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// reencodeSignature flips an unused trailing bit of the signature.
func reencodeSignature(token string) string {
	sig := []byte(token)
	last := strings.IndexByte(base64URLAlphabet, sig[len(sig)-1])
	sig[len(sig)-1] = base64URLAlphabet[last^1]
	return string(sig)
}

func TestRevokedSessionStaysBannedUnderReencoding(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	token, _, err := h.sessions.IssueSession(ctx, core.MustParseEmail("a@b.com"))
	require.NoError(t, err)
	_, err = h.sessions.RevokeSession(ctx, token)
	require.NoError(t, err)

	sibling := reencodeSignature(token)
	require.NotEqual(t, token, sibling)

	_, err = h.sessions.VerifySession(ctx, sibling)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidToken) || errors.Is(err, core.ErrBannedToken))
}

// aliasTokenizer accepts "<token>#alias" as another spelling of token.
type aliasTokenizer struct {
	ports.Tokenizer
}

func (a aliasTokenizer) Verify(token string) (core.SessionClaims, error) {
	return a.Tokenizer.Verify(strings.TrimSuffix(token, "#alias"))
}

func TestRevocationIsKeyedByTokenID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sessions := NewSessionManager(aliasTokenizer{h.tokenizer}, h.revocations, h.clock, 0)

	token, claims, err := sessions.IssueSession(ctx, core.MustParseEmail("a@b.com"))
	require.NoError(t, err)
	_, err = sessions.RevokeSession(ctx, token)
	require.NoError(t, err)

	revoked, err := h.revocations.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = sessions.VerifySession(ctx, token+"#alias")
	assert.ErrorIs(t, err, core.ErrBannedToken)
}
