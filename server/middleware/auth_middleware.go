package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"penacms-backend/auth"
)

// Context keys set by RequireAuth.
const (
	ContextUser      = "user"
	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
	ContextAccessJTI = "accessJTI"
	ContextAccessExp = "accessExp"
)

// RequireAuth validates the bearer token against the auth service and puts
// the resolved user in the request context. Revocation-registry failures are
// reported as 500, never as 401 - a store timeout is not a security decision.
func RequireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Expected Bearer {token}"})
			c.Abort()
			return
		}

		claims, user, err := svc.ResolveAccessToken(c.Request.Context(), tokenParts[1])
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or revoked token"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role.Name)
		c.Set(ContextAccessJTI, claims.ID)
		c.Set(ContextAccessExp, claims.ExpiresAt.Time)

		c.Next()
	}
}

// RequireTier enforces a minimum role tier. Must run after RequireAuth.
// Checks are tier-inclusive: requiring admin also admits superAdmin and
// kamisama.
func RequireTier(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if !auth.TierAtLeast(role, required) {
			c.JSON(http.StatusForbidden, gin.H{
				"errors":  "auth_level_too_low",
				"message": "You are not authorized to perform this action",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
