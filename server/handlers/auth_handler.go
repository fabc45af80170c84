package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"penacms-backend/auth"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register Request struct
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=3" example:"Ada Lovelace"`
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Username string `json:"username" binding:"required,min=4" example:"ada"`
	Password string `json:"password" binding:"required,min=8" example:"securepassword123"`
}

// Login Request struct
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"ada"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
}

// Refresh/Logout Request struct
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// POST /api/auth/register
// @Summary Register new user
// @Description Register a new user account with the default role
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "User registration data"
// @Success 201 {object} map[string]interface{} "User registered successfully"
// @Failure 400 {object} map[string]string "Invalid request format or validation error"
// @Failure 409 {object} map[string]string "Email or username already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate a user and return an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Param X-Device header string false "Device label"
// @Param X-Device-ID header string false "Device identifier"
// @Param X-Lat header number false "Latitude hint"
// @Param X-Long header number false "Longitude hint"
// @Success 200 {object} auth.TokenPair "Successful login"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, deviceInfoFromHeaders(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// POST /api/auth/refresh
// @Summary Refresh token pair
// @Description Exchange a refresh token for a new access/refresh pair. Refresh tokens are single-use.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} auth.TokenPair "New token pair"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Refresh token invalid, revoked or expired"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.svc.ParseRefreshClaims(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	// If the caller also presented its access token, rotation revokes it
	// together with the refresh token.
	accessJTI, accessExp := bearerClaims(c, h.svc)

	pair, err := h.svc.Refresh(c.Request.Context(), claims.ID, accessJTI, accessExp)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// POST /api/auth/logout
// @Summary User logout
// @Description Revoke the refresh token, delete its session and revoke the presented access token. Idempotent.
// @Tags auth
// @Accept json
// @Produce json
// @Param logout body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]string "Logged out successfully"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Refresh token unparseable"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.svc.ParseRefreshClaims(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	accessJTI, accessExp := bearerClaims(c, h.svc)

	if err := h.svc.Logout(c.Request.Context(), claims.ID, accessJTI, accessExp); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// deviceInfoFromHeaders collects the device hints the clients send on login.
func deviceInfoFromHeaders(c *gin.Context) auth.DeviceInfo {
	device := c.GetHeader("X-Device")
	if device == "" {
		device = "Unknown"
	}

	info := auth.DeviceInfo{Device: device}

	if deviceID := c.GetHeader("X-Device-ID"); deviceID != "" {
		info.DeviceID = &deviceID
	}
	if ip := c.ClientIP(); ip != "" {
		info.IP = &ip
	}
	if lat, err := strconv.ParseFloat(c.GetHeader("X-Lat"), 64); err == nil {
		info.Lat = &lat
	}
	if long, err := strconv.ParseFloat(c.GetHeader("X-Long"), 64); err == nil {
		info.Long = &long
	}

	return info
}

// bearerClaims best-effort parses the Authorization header so refresh/logout
// can revoke the access token that accompanied the call. An absent or
// unparseable header just means there is nothing to revoke.
func bearerClaims(c *gin.Context, svc *auth.Service) (string, time.Time) {
	header := c.GetHeader("Authorization")
	if len(header) <= 7 || header[:7] != "Bearer " {
		return "", time.Time{}
	}
	claims, err := svc.ParseAccessClaims(header[7:])
	if err != nil {
		return "", time.Time{}
	}
	return claims.ID, claims.ExpiresAt.Time
}
