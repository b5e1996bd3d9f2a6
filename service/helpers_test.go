package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/layer-3/authsvc/adapters/hasher"
	"github.com/layer-3/authsvc/adapters/store"
	"github.com/layer-3/authsvc/adapters/tokenizer"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

var errBackend = errors.New("backend down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSender remembers the last code sent to each principal.
type recordingSender struct {
	mu    sync.Mutex
	codes map[core.Email]core.TwoFACode
	err   error
}

func (s *recordingSender) SendCode(_ context.Context, email core.Email, code core.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.codes[email] = code
	return nil
}

func (s *recordingSender) last(email string) core.TwoFACode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[core.MustParseEmail(email)]
}

type recordingPublisher struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (p *recordingPublisher) PublishLogout(_ context.Context, _ core.Email, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, tokenID)
	return p.err
}

// flakyChallengeStore fails the selected operations with errBackend.
type flakyChallengeStore struct {
	ports.ChallengeStore
	failIssue, failLookup, failInvalidate bool
}

func (s *flakyChallengeStore) Issue(ctx context.Context, email core.Email, id core.LoginAttemptID, code core.TwoFACode) error {
	if s.failIssue {
		return errBackend
	}
	return s.ChallengeStore.Issue(ctx, email, id, code)
}

func (s *flakyChallengeStore) Lookup(ctx context.Context, email core.Email) (core.Challenge, error) {
	if s.failLookup {
		return core.Challenge{}, errBackend
	}
	return s.ChallengeStore.Lookup(ctx, email)
}

func (s *flakyChallengeStore) Invalidate(ctx context.Context, email core.Email) error {
	if s.failInvalidate {
		return errBackend
	}
	return s.ChallengeStore.Invalidate(ctx, email)
}

type brokenRevocationStore struct{}

func (brokenRevocationStore) Revoke(context.Context, string, time.Time) error {
	return errBackend
}

func (brokenRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errBackend
}

type harness struct {
	clock       *fakeClock
	tokenizer   ports.Tokenizer
	revocations ports.RevocationStore
	challenges  *flakyChallengeStore
	sender      *recordingSender
	events      *recordingPublisher
	sessions    *SessionManager
	svc         *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	tok, err := tokenizer.NewJWTTokenizer(testSecret, "", clock)
	require.NoError(t, err)
	h, err := hasher.NewArgon2(hasher.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	hs := &harness{
		clock:       clock,
		tokenizer:   tok,
		revocations: store.NewMemoryRevocationStore(clock),
		challenges:  &flakyChallengeStore{ChallengeStore: store.NewMemoryChallengeStore(0, clock)},
		sender:      &recordingSender{codes: make(map[core.Email]core.TwoFACode)},
		events:      &recordingPublisher{},
	}
	hs.sessions = NewSessionManager(tok, hs.revocations, clock, 0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hs.svc = NewAuthService(store.NewMemoryUserStore(h), h, hs.challenges, hs.sender, hs.sessions, hs.events, logger)
	return hs
}

func (h *harness) signup(t *testing.T, email string, requires2FA bool) {
	t.Helper()
	require.NoError(t, h.svc.Signup(context.Background(), email, "password123", requires2FA))
}
