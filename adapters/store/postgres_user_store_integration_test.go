//go:build integration
// +build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostgresUserStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := ConnectPostgres(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	h := newTestHasher(t)
	s := NewPostgresUserStore(pool, h)
	require.NoError(t, s.EnsureSchema(ctx))

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	exerciseUserStore(t, s, h, email)

	_, err = pool.Exec(ctx, `DELETE FROM users WHERE email=$1`, email)
	require.NoError(t, err)
}
