package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authsvc/core"
)

// errorStatus maps a service error to a status code and a fixed reason.
// Internal causes never reach the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, core.ErrIncorrectCredentials):
		return http.StatusUnauthorized, "Incorrect credentials"
	case errors.Is(err, core.ErrUserAlreadyExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, core.ErrMissingToken):
		return http.StatusBadRequest, "Missing auth token"
	case errors.Is(err, core.ErrInvalidToken), errors.Is(err, core.ErrBannedToken):
		return http.StatusUnauthorized, "Invalid auth token"
	default:
		return http.StatusInternalServerError, "Unexpected error"
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrBannedToken):
		return "banned_token"
	case errors.Is(err, core.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, core.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, core.ErrIncorrectCredentials):
		return "incorrect_credentials"
	case errors.Is(err, core.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, core.ErrUserAlreadyExists):
		return "user_exists"
	default:
		return "error"
	}
}

func writeError(c *gin.Context, err error) {
	status, reason := errorStatus(err)
	c.JSON(status, gin.H{"error": reason})
}

func writeMalformed(c *gin.Context) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Malformed request"})
}
