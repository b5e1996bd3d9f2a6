package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authsvc/service"
)

// RouterConfig carries the transport settings.
type RouterConfig struct {
	CookieName   string
	CookieSecure bool
	Metrics      *Metrics // nil disables metrics and /metrics
	Logger       *slog.Logger
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, cfg RouterConfig) *gin.Engine {
	if cfg.CookieName == "" {
		cfg.CookieName = "jwt"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Create handlers
	handlers := NewAuthHandlers(authService, cfg)

	router.GET("/healthz", handlers.Health)

	// Auth routes
	router.POST("/signup", handlers.Signup)
	router.POST("/login", handlers.Login)
	router.POST("/verify-2fa", handlers.VerifyTwoFactor)
	router.POST("/logout", handlers.Logout)
	router.POST("/verify-token", handlers.VerifyToken)

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService, cfg.CookieName))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
