package authsvc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/authsvc/config"
	"github.com/layer-3/authsvc/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"

	_, err := New(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestNewInMemory(t *testing.T) {
	app, err := New(context.Background(), testConfig(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	w := post(t, app.Handler(), "/signup", `{"email":"a@b.com","password":"password123","requires2FA":false}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = post(t, app.Handler(), "/login", `{"email":"a@b.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.CodeDelivery = config.DeliveryStream
	cfg.EventsEnabled = true

	ctx := context.Background()
	app, err := New(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	svc := app.Service()
	require.NoError(t, svc.Signup(ctx, "a@b.com", "password123", true))

	res, err := svc.Login(ctx, "a@b.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, service.PendingTwoFactor, res.State)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	n, err := rdb.XLen(ctx, cfg.CodeTopic).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "code request published to the stream")
	assert.True(t, mr.Exists("authsvc:two_fa_code:a@b.com"))

	require.NoError(t, svc.Signup(ctx, "c@d.com", "password123", false))
	res, err = svc.Login(ctx, "c@d.com", "password123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, res.Token))

	n, err = rdb.XLen(ctx, cfg.LogoutTopic).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "logout event published")
	assert.True(t, mr.Exists("authsvc:banned_token:"+res.Claims.ID))
}

func TestNewRedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := New(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "redis")
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	cfg.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.LogLevel = "debug"

	out, errOut := gin.DefaultWriter, gin.DefaultErrorWriter
	t.Cleanup(func() { gin.DefaultWriter, gin.DefaultErrorWriter = out, errOut })

	logger, closer, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
