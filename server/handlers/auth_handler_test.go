package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"penacms-backend/auth"
	"penacms-backend/server/middleware"
	"penacms-backend/shared/database/models"
	authmodels "penacms-backend/shared/database/models/auth"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Profile{},
		&authmodels.RefreshToken{},
		&authmodels.RevokedAccessToken{},
		&authmodels.UserSession{},
	))

	for _, name := range []string{auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin, auth.RoleKamisama} {
		require.NoError(t, db.Create(&models.Role{Name: name}).Error)
	}

	issuer, err := auth.NewTokenIssuer("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	svc := auth.NewService(db, issuer, auth.NewDBRevocationStore(db))

	authHandler := NewAuthHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/refresh", authHandler.Refresh)
	router.POST("/api/auth/logout", authHandler.Logout)

	authed := router.Group("/api", middleware.RequireAuth(svc))
	authed.GET("/auth/sessions", authHandler.ListSessions)

	return router
}

func postJSON(router *gin.Engine, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerPayload() map[string]string {
	return map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"username": "ada",
		"password": "securepassword",
	}
}

func loginTestUser(t *testing.T, router *gin.Engine) auth.TokenPair {
	t.Helper()

	rec := postJSON(router, "/api/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/api/auth/login", map[string]string{
		"username": "ada",
		"password": "securepassword",
	}, map[string]string{"X-Device": "Firefox on Linux"})
	require.Equal(t, http.StatusOK, rec.Code)

	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(router, "/api/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "securepassword")

	// Same email again
	rec = postJSON(router, "/api/auth/register", registerPayload(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	router := newTestRouter(t)

	payload := registerPayload()
	payload["password"] = "short"

	rec := postJSON(router, "/api/auth/register", payload, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(router, "/api/auth/register", registerPayload(), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/api/auth/login", map[string]string{
		"username": "ada",
		"password": "wrongpassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpoint_RotationIsSingleUse(t *testing.T) {
	router := newTestRouter(t)
	pair := loginTestUser(t, router)

	rec := postJSON(router, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated auth.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed refresh token fails.
	rec = postJSON(router, "/api/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint_RevokesAccessToken(t *testing.T) {
	router := newTestRouter(t)
	pair := loginTestUser(t, router)

	// Authenticated call works before logout.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec2 := postJSON(router, "/api/auth/logout", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, map[string]string{"Authorization": "Bearer " + pair.AccessToken})
	require.Equal(t, http.StatusOK, rec2.Code)

	// The access token presented at logout is now dead.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout is idempotent.
	rec2 = postJSON(router, "/api/auth/logout", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestRefreshEndpoint_GarbageToken(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(router, "/api/auth/refresh", map[string]string{
		"refresh_token": "not-a-jwt",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
