package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"penacms-backend/server/middleware"
)

// GET /api/auth/sessions
// @Summary List active sessions
// @Description List the authenticated user's unexpired sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} auth.SessionInfo "Active sessions"
// @Failure 401 {object} map[string]string "User not authenticated"
// @Router /auth/sessions [get]
func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	sessions, err := h.svc.GetActiveSessions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// DELETE /api/auth/sessions/:id
// @Summary Revoke a session
// @Description Revoke one of the authenticated user's sessions and its backing refresh token
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]string "Session revoked"
// @Failure 400 {object} map[string]string "Invalid session ID format"
// @Failure 404 {object} map[string]string "Session not found or not owned by the user"
// @Router /auth/sessions/{id} [delete]
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID format"})
		return
	}

	if err := h.svc.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session revoked successfully"})
}

// POST /api/auth/sessions/revoke-all
// @Summary Revoke all sessions
// @Description Revoke every refresh token and delete every session of the authenticated user
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "All sessions revoked"
// @Failure 401 {object} map[string]string "User not authenticated"
// @Router /auth/sessions/revoke-all [post]
func (h *AuthHandler) RevokeAllSessions(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	if err := h.svc.RevokeAllSessions(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All sessions revoked successfully"})
}

// POST /api/auth/revoke-all
// @Summary Log out everywhere
// @Description Revoke all refresh tokens and sessions plus the access token used for this call
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "All tokens revoked"
// @Failure 401 {object} map[string]string "User not authenticated"
// @Router /auth/revoke-all [post]
func (h *AuthHandler) RevokeAllTokens(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	accessJTI := c.GetString(middleware.ContextAccessJTI)
	accessExp, _ := c.MustGet(middleware.ContextAccessExp).(time.Time)

	if err := h.svc.RevokeAllTokens(c.Request.Context(), userID, accessJTI, accessExp); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All tokens revoked successfully"})
}

// GET /api/admin/active-users
// @Summary List active users
// @Description List users with at least one unexpired session
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} auth.ActiveUser "Active users"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Router /admin/active-users [get]
func (h *AuthHandler) GetAllActiveUsers(c *gin.Context) {
	users, err := h.svc.GetAllActiveUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GET /api/admin/active-sessions
// @Summary List all active sessions
// @Description List every unexpired session with its owner
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} auth.ActiveSession "Active sessions"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Router /admin/active-sessions [get]
func (h *AuthHandler) GetAllActiveSessions(c *gin.Context) {
	sessions, err := h.svc.GetAllActiveSessions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
