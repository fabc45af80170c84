package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"penacms-backend/auth"
)

// respondError maps the auth core's error taxonomy to HTTP status codes.
// Anything outside the taxonomy is a store/signing failure and becomes a 500
// without detail.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to perform this action"})
	case errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, auth.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Already registered"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
