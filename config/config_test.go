package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTHSVC_CONFIG", "")
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 600*time.Second, cfg.TokenTTL)
	assert.Equal(t, 600*time.Second, cfg.TwoFACodeTTL)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "jwt", cfg.CookieName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("AUTHSVC_CONFIG", "")
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("TOKEN_TTL", "120")
	t.Setenv("TWO_FA_CODE_TTL", "5m")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("COOKIE_SECURE", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.TwoFACodeTTL)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.True(t, cfg.EventsEnabled)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authsvc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
jwt_secret: "file-secret-file-secret-file-secret"
token_ttl: 15m
code_delivery: stream
`), 0o600))

	t.Setenv("AUTHSVC_CONFIG", path)
	t.Setenv("JWT_SECRET", secret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, secret, cfg.JWTSecret, "env wins over file")
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, DeliveryStream, cfg.CodeDelivery)
	assert.Equal(t, 600*time.Second, cfg.TwoFACodeTTL, "unset keys keep defaults")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token_ttl: [1, 2]\n"), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.JWTSecret = secret

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"zero token ttl", func(c *Config) { c.TokenTTL = 0 }, "TOKEN_TTL"},
		{"negative code ttl", func(c *Config) { c.TwoFACodeTTL = -time.Second }, "TWO_FA_CODE_TTL"},
		{"unknown store", func(c *Config) { c.StoreBackend = "etcd" }, "STORE_BACKEND"},
		{"postgres without dsn", func(c *Config) { c.UserStoreBackend = BackendPostgres }, "DATABASE_URL"},
		{"unknown delivery", func(c *Config) { c.CodeDelivery = "sms" }, "CODE_DELIVERY"},
		{"stream without redis", func(c *Config) { c.CodeDelivery = DeliveryStream; c.RedisURL = "" }, "REDIS_URL"},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
