// Package config loads runtime settings for the auth service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinJWTSecretLength is the shortest accepted HMAC secret, in bytes.
const MinJWTSecretLength = 32

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Code delivery modes.
const (
	DeliveryLog    = "log"
	DeliveryStream = "stream"
)

// Config holds runtime settings for the auth service process.
type Config struct {
	Addr      string `yaml:"addr"`       // HTTP listen address (e.g., ":3000")
	JWTSecret string `yaml:"jwt_secret"` // HMAC key for session tokens
	JWTIssuer string `yaml:"jwt_issuer"`

	TokenTTL     time.Duration `yaml:"token_ttl"`       // session token validity
	TwoFACodeTTL time.Duration `yaml:"two_fa_code_ttl"` // pending challenge validity

	StoreBackend     string        `yaml:"store_backend"`      // memory|redis, revocations and challenges
	UserStoreBackend string        `yaml:"user_store_backend"` // memory|postgres
	RedisURL         string        `yaml:"redis_url"`          // redis://host:port/db
	DatabaseURL      string        `yaml:"database_url"`       // PostgreSQL DSN
	StoreTimeout     time.Duration `yaml:"store_timeout"`      // bound on every store round trip

	CodeDelivery  string `yaml:"code_delivery"`  // log|stream
	CodeTopic     string `yaml:"code_topic"`     // stream topic for code requests
	EventsEnabled bool   `yaml:"events_enabled"` // publish logout events to Redis streams
	LogoutTopic   string `yaml:"logout_topic"`

	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`

	LogLevel  string `yaml:"log_level"`  // debug|info|warn|error
	LogFormat string `yaml:"log_format"` // json|text
	LogDir    string `yaml:"log_dir"`    // optional directory for a log file
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Addr:             ":3000",
		JWTIssuer:        "authsvc",
		TokenTTL:         600 * time.Second,
		TwoFACodeTTL:     600 * time.Second,
		StoreBackend:     BackendMemory,
		UserStoreBackend: BackendMemory,
		RedisURL:         "redis://localhost:6379/0",
		StoreTimeout:     2 * time.Second,
		CodeDelivery:     DeliveryLog,
		CodeTopic:        "authsvc.two_fa_code",
		LogoutTopic:      "authsvc.logout",
		CookieName:       "jwt",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load starts from Default, applies the YAML file named by AUTHSVC_CONFIG
// (if any) and then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("AUTHSVC_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.overlayEnv()
	return cfg, nil
}

// LoadFile reads a YAML config file on top of Default. Environment
// variables are not consulted.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := cfg.overlayFile(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Addr = firstNonEmpty(os.Getenv("AUTHSVC_ADDR"), c.Addr)
	c.JWTSecret = firstNonEmpty(os.Getenv("JWT_SECRET"), c.JWTSecret)
	c.JWTIssuer = firstNonEmpty(os.Getenv("JWT_ISSUER"), c.JWTIssuer)
	c.TokenTTL = durationFromEnv("TOKEN_TTL", c.TokenTTL)
	c.TwoFACodeTTL = durationFromEnv("TWO_FA_CODE_TTL", c.TwoFACodeTTL)
	c.StoreBackend = firstNonEmpty(os.Getenv("STORE_BACKEND"), c.StoreBackend)
	c.UserStoreBackend = firstNonEmpty(os.Getenv("USER_STORE_BACKEND"), c.UserStoreBackend)
	c.RedisURL = firstNonEmpty(os.Getenv("REDIS_URL"), c.RedisURL)
	c.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL"), c.DatabaseURL)
	c.StoreTimeout = durationFromEnv("STORE_TIMEOUT", c.StoreTimeout)
	c.CodeDelivery = firstNonEmpty(os.Getenv("CODE_DELIVERY"), c.CodeDelivery)
	c.EventsEnabled = boolFromEnv("EVENTS_ENABLED", c.EventsEnabled)
	c.CookieName = firstNonEmpty(os.Getenv("JWT_COOKIE_NAME"), c.CookieName)
	c.CookieSecure = boolFromEnv("COOKIE_SECURE", c.CookieSecure)
	c.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), c.LogLevel)
	c.LogFormat = firstNonEmpty(os.Getenv("LOG_FORMAT"), c.LogFormat)
	c.LogDir = firstNonEmpty(os.Getenv("LOG_DIR"), c.LogDir)
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.StoreBackend == BackendRedis || c.CodeDelivery == DeliveryStream || c.EventsEnabled
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.TwoFACodeTTL <= 0 {
		errs = append(errs, errors.New("TWO_FA_CODE_TTL must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}

	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.UserStoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres user store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown USER_STORE_BACKEND %q", c.UserStoreBackend))
	}
	switch c.CodeDelivery {
	case DeliveryLog, DeliveryStream:
	default:
		errs = append(errs, fmt.Errorf("unknown CODE_DELIVERY %q", c.CodeDelivery))
	}
	if c.NeedsRedis() && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required"))
	}
	if c.CookieName == "" {
		errs = append(errs, errors.New("JWT_COOKIE_NAME is empty"))
	}

	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// durationFromEnv accepts Go durations ("10m") or whole seconds ("600").
func durationFromEnv(name string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}
