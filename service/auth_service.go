package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// LoginState is a position in the login state machine.
type LoginState int

const (
	Start LoginState = iota
	CredentialsChecked
	PendingTwoFactor
	Authenticated
	Rejected
)

func (s LoginState) String() string {
	switch s {
	case Start:
		return "start"
	case CredentialsChecked:
		return "credentials_checked"
	case PendingTwoFactor:
		return "pending_two_factor"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("LoginState(%d)", int(s))
	}
}

// LoginResult is the outcome of a successful Login or VerifyTwoFactor call.
// Rejections are reported as errors.
type LoginResult struct {
	State LoginState

	// Set when State is Authenticated.
	Token  string
	Claims core.SessionClaims

	// Set when State is PendingTwoFactor.
	LoginAttemptID core.LoginAttemptID
}

// AuthService handles authentication business logic
type AuthService struct {
	users      ports.UserStore
	hasher     ports.PasswordHasher
	challenges ports.ChallengeStore
	sender     ports.CodeSender
	sessions   *SessionManager
	eventPub   ports.EventPublisher
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service. eventPub may be nil.
func NewAuthService(
	users ports.UserStore,
	hasher ports.PasswordHasher,
	challenges ports.ChallengeStore,
	sender ports.CodeSender,
	sessions *SessionManager,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:      users,
		hasher:     hasher,
		challenges: challenges,
		sender:     sender,
		sessions:   sessions,
		eventPub:   eventPub,
		logger:     logger,
	}
}

// Signup registers a new principal.
func (s *AuthService) Signup(ctx context.Context, email, password string, requires2FA bool) error {
	principal, err := core.ParseEmail(email)
	if err != nil {
		return err
	}
	credential, err := core.ParsePassword(password)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return s.unexpected(ctx, "signup", err)
	}

	err = s.users.AddUser(ctx, core.User{
		Email:        principal,
		PasswordHash: hash,
		Requires2FA:  requires2FA,
	})
	if errors.Is(err, core.ErrUserAlreadyExists) {
		return core.ErrUserAlreadyExists
	}
	if err != nil {
		return s.unexpected(ctx, "signup", err)
	}

	s.logger.InfoContext(ctx, "user signed up", "email", principal.String(), "requires_2fa", requires2FA)
	return nil
}

// Login checks credentials and either issues a session or starts a
// two-factor challenge.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	principal, err := core.ParseEmail(email)
	if err != nil {
		return LoginResult{}, err
	}
	credential, err := core.ParsePassword(password)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.users.ValidateUser(ctx, principal, credential); err != nil {
		return LoginResult{}, s.reject(ctx, Start, principal, "login", err)
	}
	user, err := s.users.GetUser(ctx, principal)
	if err != nil {
		return LoginResult{}, s.reject(ctx, Start, principal, "login", err)
	}
	s.transition(ctx, Start, CredentialsChecked, principal)

	if !user.Requires2FA {
		return s.authenticate(ctx, CredentialsChecked, principal)
	}

	attemptID := core.NewLoginAttemptID()
	code, err := core.NewTwoFACode()
	if err != nil {
		return LoginResult{}, s.unexpected(ctx, "login", err)
	}

	// A pending challenge from an earlier login is overwritten here.
	if err := s.challenges.Issue(ctx, principal, attemptID, code); err != nil {
		return LoginResult{}, s.unexpected(ctx, "login", err)
	}
	if err := s.sender.SendCode(ctx, principal, code); err != nil {
		return LoginResult{}, s.unexpected(ctx, "login", err)
	}

	s.transition(ctx, CredentialsChecked, PendingTwoFactor, principal)
	return LoginResult{State: PendingTwoFactor, LoginAttemptID: attemptID}, nil
}

// VerifyTwoFactor completes a pending login. A wrong guess leaves the
// challenge in place; a correct one consumes it.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, email, attemptID, code string) (LoginResult, error) {
	principal, err := core.ParseEmail(email)
	if err != nil {
		return LoginResult{}, err
	}
	id, err := core.ParseLoginAttemptID(attemptID)
	if err != nil {
		return LoginResult{}, err
	}
	submitted, err := core.ParseTwoFACode(code)
	if err != nil {
		return LoginResult{}, err
	}

	challenge, err := s.challenges.Lookup(ctx, principal)
	if errors.Is(err, core.ErrChallengeNotFound) {
		return LoginResult{}, s.reject(ctx, PendingTwoFactor, principal, "verify_2fa", err)
	}
	if err != nil {
		return LoginResult{}, s.unexpected(ctx, "verify_2fa", err)
	}

	if !challenge.Matches(id, submitted) {
		return LoginResult{}, s.reject(ctx, PendingTwoFactor, principal, "verify_2fa", core.ErrIncorrectCredentials)
	}

	if err := s.challenges.Invalidate(ctx, principal); err != nil {
		return LoginResult{}, s.unexpected(ctx, "verify_2fa", err)
	}

	return s.authenticate(ctx, PendingTwoFactor, principal)
}

// Logout revokes token. Other instances are notified through the event
// publisher; a publish failure does not fail the logout.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return core.ErrMissingToken
	}

	claims, err := s.sessions.RevokeSession(ctx, token)
	if err != nil {
		return s.tokenError(ctx, "logout", err)
	}
	s.transition(ctx, Authenticated, Rejected, claims.Subject)

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, claims.Subject, claims.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to publish logout event", "token_id", claims.ID, "error", err)
		}
	}
	return nil
}

// VerifyToken validates a session token against the denylist and its
// signature.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (core.SessionClaims, error) {
	claims, err := s.sessions.VerifySession(ctx, token)
	if err != nil {
		return core.SessionClaims{}, s.tokenError(ctx, "verify_token", err)
	}
	return claims, nil
}

func (s *AuthService) authenticate(ctx context.Context, from LoginState, principal core.Email) (LoginResult, error) {
	token, claims, err := s.sessions.IssueSession(ctx, principal)
	if err != nil {
		return LoginResult{}, s.unexpected(ctx, "issue_session", err)
	}
	s.transition(ctx, from, Authenticated, principal)
	return LoginResult{State: Authenticated, Token: token, Claims: claims}, nil
}

// reject collapses every credential failure into ErrIncorrectCredentials.
// Anything else is a backend failure.
func (s *AuthService) reject(ctx context.Context, from LoginState, principal core.Email, op string, cause error) error {
	switch {
	case errors.Is(cause, core.ErrUserNotFound),
		errors.Is(cause, core.ErrInvalidCredentials),
		errors.Is(cause, core.ErrChallengeNotFound),
		errors.Is(cause, core.ErrIncorrectCredentials):
		s.logger.DebugContext(ctx, "login rejected", "op", op, "email", principal.String(), "cause", cause)
		s.transition(ctx, from, Rejected, principal)
		return core.ErrIncorrectCredentials
	default:
		return s.unexpected(ctx, op, cause)
	}
}

func (s *AuthService) tokenError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, core.ErrMissingToken),
		errors.Is(err, core.ErrBannedToken),
		errors.Is(err, core.ErrInvalidToken):
		s.logger.DebugContext(ctx, "token rejected", "op", op, "cause", err)
		return err
	default:
		return s.unexpected(ctx, op, err)
	}
}

func (s *AuthService) unexpected(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "auth operation failed", "op", op, "error", err)
	if errors.Is(err, core.ErrUnexpected) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", core.ErrUnexpected, op, err)
}

func (s *AuthService) transition(ctx context.Context, from, to LoginState, principal core.Email) {
	s.logger.DebugContext(ctx, "login state transition", "from", from, "to", to, "email", principal.String())
}
