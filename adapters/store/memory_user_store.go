package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// MemoryUserStore is an in-memory implementation of UserStore
type MemoryUserStore struct {
	users  map[core.Email]core.User
	hasher ports.PasswordHasher
	mu     sync.RWMutex
}

// NewMemoryUserStore creates a new in-memory user store
func NewMemoryUserStore(hasher ports.PasswordHasher) *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[core.Email]core.User),
		hasher: hasher,
	}
}

// AddUser stores a user unless the email is already taken
func (s *MemoryUserStore) AddUser(ctx context.Context, user core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return core.ErrUserAlreadyExists
	}
	s.users[user.Email] = user
	return nil
}

// GetUser returns the user registered under email
func (s *MemoryUserStore) GetUser(ctx context.Context, email core.Email) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return user, nil
}

// ValidateUser checks password against the stored hash
func (s *MemoryUserStore) ValidateUser(ctx context.Context, email core.Email, password core.Password) error {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	return verifyPassword(s.hasher, user, password)
}

func verifyPassword(hasher ports.PasswordHasher, user core.User, password core.Password) error {
	ok, err := hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: verify password hash: %v", core.ErrUnexpected, err)
	}
	if !ok {
		return core.ErrInvalidCredentials
	}
	return nil
}
