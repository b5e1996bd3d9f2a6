package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authsvc/service"
)

const emailKey = "email"

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService  *service.AuthService
	cookieName   string
	cookieSecure bool
	metrics      *Metrics
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cfg RouterConfig) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		metrics:      cfg.Metrics,
	}
}

type signupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Requires2FA bool   `json:"requires2FA"`
}

// Signup registers a new user
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMalformed(c)
		return
	}

	err := h.authService.Signup(c.Request.Context(), req.Email, req.Password, req.Requires2FA)
	h.metrics.ObserveAuth("signup", outcome(err))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials. Users with two-factor enabled get 206 and a
// login attempt id; everyone else gets a session cookie.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMalformed(c)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	h.metrics.ObserveAuth("login", outcome(err))
	if err != nil {
		writeError(c, err)
		return
	}

	if res.State == service.PendingTwoFactor {
		c.JSON(http.StatusPartialContent, gin.H{
			"message":        "2FA required",
			"loginAttemptId": res.LoginAttemptID.String(),
		})
		return
	}

	h.writeSession(c, res)
}

type verifyTwoFactorRequest struct {
	Email          string `json:"email" binding:"required"`
	LoginAttemptID string `json:"loginAttemptId" binding:"required"`
	Code           string `json:"2FACode" binding:"required"`
}

// VerifyTwoFactor completes a login that required a two-factor code
func (h *AuthHandlers) VerifyTwoFactor(c *gin.Context) {
	var req verifyTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMalformed(c)
		return
	}

	res, err := h.authService.VerifyTwoFactor(c.Request.Context(), req.Email, req.LoginAttemptID, req.Code)
	h.metrics.ObserveAuth("verify_2fa", outcome(err))
	if err != nil {
		writeError(c, err)
		return
	}

	h.writeSession(c, res)
}

// Logout revokes the session token from the Authorization header or cookie
func (h *AuthHandlers) Logout(c *gin.Context) {
	token := sessionToken(c, h.cookieName)

	err := h.authService.Logout(c.Request.Context(), token)
	h.metrics.ObserveAuth("logout", outcome(err))
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

type verifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyToken reports whether a session token is still valid
func (h *AuthHandlers) VerifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeMalformed(c)
		return
	}

	claims, err := h.authService.VerifyToken(c.Request.Context(), req.Token)
	h.metrics.ObserveAuth("verify_token", outcome(err))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":      claims.Subject.String(),
		"expires_at": claims.ExpiresAt.Unix(),
	})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	// Set by the auth middleware
	email, exists := c.Get(emailKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": email})
}

// Health reports liveness.
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandlers) writeSession(c *gin.Context, res service.LoginResult) {
	maxAge := int(time.Until(res.Claims.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(service.DefaultTokenTTL.Seconds())
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, res.Token, maxAge, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      res.Token,
		"expires_at": res.Claims.ExpiresAt.Unix(),
	})
}

// sessionToken prefers a bearer token and falls back to the session cookie.
func sessionToken(c *gin.Context, cookieName string) string {
	if token := bearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	token, _ := c.Cookie(cookieName)
	return token
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
