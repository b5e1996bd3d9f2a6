// Package authsvc wires the auth service together: stores, token signing,
// two-factor delivery, logout events and the HTTP transport.
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/authsvc/adapters/delivery"
	"github.com/layer-3/authsvc/adapters/events"
	"github.com/layer-3/authsvc/adapters/hasher"
	"github.com/layer-3/authsvc/adapters/store"
	"github.com/layer-3/authsvc/adapters/tokenizer"
	"github.com/layer-3/authsvc/config"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
	"github.com/layer-3/authsvc/service"
	transport "github.com/layer-3/authsvc/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired auth service.
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	service *service.AuthService
	handler http.Handler
	closers []func() error
}

// New builds every component selected by cfg. Call Close to release the
// connections it opened.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	clock := core.SystemClock{}

	tok, err := tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret), cfg.JWTIssuer, clock)
	if err != nil {
		return nil, err
	}

	h, err := hasher.NewArgon2(hasher.DefaultConfig())
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb, err = store.NewRedisClient(ctx, cfg.RedisURL, cfg.StoreTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
	}

	var (
		revocations ports.RevocationStore
		challenges  ports.ChallengeStore
	)
	switch cfg.StoreBackend {
	case config.BackendRedis:
		revocations = store.NewRedisRevocationStore(rdb, clock, cfg.StoreTimeout)
		challenges = store.NewRedisChallengeStore(rdb, cfg.TwoFACodeTTL, clock, cfg.StoreTimeout)
	default:
		revocations = store.NewMemoryRevocationStore(clock)
		challenges = store.NewMemoryChallengeStore(cfg.TwoFACodeTTL, clock)
	}

	users, err := app.userStore(ctx, h)
	if err != nil {
		return nil, err
	}

	var publisher message.Publisher
	if cfg.CodeDelivery == config.DeliveryStream || cfg.EventsEnabled {
		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: rdb,
			},
			watermill.NewSlogLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
		app.closers = append(app.closers, publisher.Close)
	}

	var sender ports.CodeSender
	switch cfg.CodeDelivery {
	case config.DeliveryStream:
		sender = delivery.NewStreamSender(publisher, cfg.CodeTopic)
	default:
		logger.Warn("two-factor codes are written to the log; do not use in production")
		sender = delivery.NewLogSender(logger)
	}

	var eventPub ports.EventPublisher = events.NopPublisher{}
	if cfg.EventsEnabled {
		eventPub = events.NewWatermillPublisher(publisher, cfg.LogoutTopic)
	}

	sessions := service.NewSessionManager(tok, revocations, clock, cfg.TokenTTL)
	app.service = service.NewAuthService(users, h, challenges, sender, sessions, eventPub, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.handler = transport.SetupRouter(app.service, transport.RouterConfig{
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		Metrics:      transport.NewMetrics(transport.WithRegistry(registry)),
		Logger:       logger,
	})

	logger.Info("auth service configured",
		"store_backend", cfg.StoreBackend,
		"user_store_backend", cfg.UserStoreBackend,
		"code_delivery", cfg.CodeDelivery,
		"events_enabled", cfg.EventsEnabled,
	)
	return app, nil
}

func (a *App) userStore(ctx context.Context, h ports.PasswordHasher) (ports.UserStore, error) {
	if a.cfg.UserStoreBackend != config.BackendPostgres {
		return store.NewMemoryUserStore(h), nil
	}

	pool, err := store.ConnectPostgres(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	users := store.NewPostgresUserStore(pool, h)
	if err := users.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare users table: %w", err)
	}
	return users, nil
}

// Service returns the auth service behind the HTTP handlers.
func (a *App) Service() *service.AuthService { return a.service }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
