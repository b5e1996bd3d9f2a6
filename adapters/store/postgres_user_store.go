package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

const uniqueViolation = "23505"

const usersSchema = `CREATE TABLE IF NOT EXISTS users (
	email         TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	requires_2fa  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresUserStore implements UserStore on top of a pgx pool.
type PostgresUserStore struct {
	db     *pgxpool.Pool
	hasher ports.PasswordHasher
}

func NewPostgresUserStore(db *pgxpool.Pool, hasher ports.PasswordHasher) *PostgresUserStore {
	return &PostgresUserStore{db: db, hasher: hasher}
}

// EnsureSchema creates the users table when missing.
func (s *PostgresUserStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, usersSchema); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) AddUser(ctx context.Context, user core.User) error {
	const q = `INSERT INTO users (email, password_hash, requires_2fa) VALUES ($1,$2,$3)`
	if _, err := s.db.Exec(ctx, q, user.Email.String(), user.PasswordHash, user.Requires2FA); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrUserAlreadyExists
		}
		return fmt.Errorf("%w: insert user: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresUserStore) GetUser(ctx context.Context, email core.Email) (core.User, error) {
	const q = `SELECT password_hash, requires_2fa FROM users WHERE email=$1`
	user := core.User{Email: email}
	if err := s.db.QueryRow(ctx, q, email.String()).Scan(&user.PasswordHash, &user.Requires2FA); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.User{}, core.ErrUserNotFound
		}
		return core.User{}, fmt.Errorf("%w: select user: %v", core.ErrStoreUnavailable, err)
	}
	return user, nil
}

func (s *PostgresUserStore) ValidateUser(ctx context.Context, email core.Email, password core.Password) error {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	return verifyPassword(s.hasher, user, password)
}
