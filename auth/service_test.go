package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"penacms-backend/shared/database/models"
	authmodels "penacms-backend/shared/database/models/auth"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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

	for _, name := range []string{RoleUser, RoleAdmin, RoleSuperAdmin, RoleKamisama} {
		require.NoError(t, db.Create(&models.Role{Name: name}).Error)
	}

	svc := NewService(db, newTestIssuer(t), NewDBRevocationStore(db))
	return svc, db
}

func registerAndLogin(t *testing.T, svc *Service, username string) (*models.User, *TokenPair) {
	t.Helper()

	ctx := context.Background()
	user, err := svc.Register(ctx, "Test "+username, username+"@example.com", username, "securepassword")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, username, "securepassword", DeviceInfo{Device: "Firefox on Linux"})
	require.NoError(t, err)

	return user, pair
}

func TestRegister_CreatesUserWithDefaultRoleAndProfile(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "ada", "securepassword")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	assert.Empty(t, user.Password)

	role, err := svc.GetUserRoleByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	var profileCount int64
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Count(&profileCount).Error)
	assert.EqualValues(t, 1, profileCount)

	// The stored hash must never equal the plaintext.
	var stored models.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&stored).Error)
	assert.NotEmpty(t, stored.Password)
	assert.NotEqual(t, "securepassword", stored.Password)
}

func TestRegister_DuplicateEmailOrUsername(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "ada", "securepassword")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Ada", "ada@example.com", "ada2", "securepassword")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "Other Ada", "ada2@example.com", "ada", "securepassword")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_DuplicateWinsRaceAgainstPrecheck(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	// Sneak a conflicting row in after the pre-check has passed, right
	// before the user insert runs. The unique index decides, and the
	// translated duplicate-key error must come back as ErrConflict, not as a
	// raw driver error.
	sneaked := false
	err := db.Callback().Create().Before("gorm:create").Register("test_sneak_duplicate", func(tx *gorm.DB) {
		if sneaked {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.User); !ok {
			return
		}
		sneaked = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (id, name, email, username, password) VALUES (?, ?, ?, ?, ?)",
			uuid.New(), "Racer", "ada@example.com", "racer", "x",
		).Error)
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ada Lovelace", "ada@example.com", "ada", "securepassword")
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, sneaked)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "ada", "securepassword")
	require.NoError(t, err)

	// Unknown user and wrong password must be indistinguishable.
	_, err = svc.Login(ctx, "nobody", "securepassword", DeviceInfo{Device: "test"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ada", "wrongpassword", DeviceInfo{Device: "test"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_CreatesTokenAndSession(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	user, pair := registerAndLogin(t, svc, "ada")

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)

	var token authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", claims.ID).First(&token).Error)
	assert.Equal(t, user.ID, token.UserID)
	assert.False(t, token.IsRevoked)

	var session authmodels.UserSession
	require.NoError(t, db.Where("token_id = ?", token.ID).First(&session).Error)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "Firefox on Linux", session.Device)
	assert.WithinDuration(t, token.ExpiresAt, session.ExpiresAt, time.Second)
}

func TestLogin_EachDeviceGetsOwnSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _ := registerAndLogin(t, svc, "ada")

	_, err := svc.Login(ctx, "ada", "securepassword", DeviceInfo{Device: "Safari on iPhone"})
	require.NoError(t, err)

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestRefresh_RotatesTokenAndKeepsSession(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	refreshClaims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)
	accessClaims, err := svc.ParseAccessClaims(pair.AccessToken)
	require.NoError(t, err)

	newPair, err := svc.Refresh(ctx, refreshClaims.ID, accessClaims.ID, accessClaims.ExpiresAt.Time)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)

	// Old refresh token is flipped, old access token lands in the registry.
	var old authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", refreshClaims.ID).First(&old).Error)
	assert.True(t, old.IsRevoked)

	revoked, err := svc.IsAccessTokenRevoked(ctx, accessClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	// The logical session survives, relinked to the new token.
	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	newClaims, err := svc.ParseRefreshClaims(newPair.RefreshToken)
	require.NoError(t, err)

	var current authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", newClaims.ID).First(&current).Error)

	var session authmodels.UserSession
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&session).Error)
	assert.Equal(t, current.ID, session.TokenID)
}

func TestRefresh_IsSingleUse(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	_, pair := registerAndLogin(t, svc, "ada")

	claims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, claims.ID, "", time.Time{})
	require.NoError(t, err)

	// Presenting the consumed token again must fail.
	_, err = svc.Refresh(ctx, claims.ID, "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The replacement token works.
	rotatedClaims, err := svc.ParseRefreshClaims(rotated.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, rotatedClaims.ID, "", time.Time{})
	require.NoError(t, err)
}

func TestRefresh_UnknownJTI(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), uuid.NewString(), "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, svc, "ada")

	expired := authmodels.RefreshToken{
		Token:     "expired",
		JTI:       uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&authmodels.UserSession{
		UserID:    user.ID,
		TokenID:   expired.ID,
		Device:    "stale",
		ExpiresAt: expired.ExpiresAt,
	}).Error)

	_, err := svc.Refresh(ctx, expired.JTI, "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_TokenWithoutSession(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, svc, "ada")

	orphan := authmodels.RefreshToken{
		Token:     "orphan",
		JTI:       uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&orphan).Error)

	// A token whose session was revoked out-of-band is no longer honored.
	_, err := svc.Refresh(ctx, orphan.JTI, "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesPairAndDeletesSession(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	refreshClaims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)
	accessClaims, err := svc.ParseAccessClaims(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, refreshClaims.ID, accessClaims.ID, accessClaims.ExpiresAt.Time))

	var token authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", refreshClaims.ID).First(&token).Error)
	assert.True(t, token.IsRevoked)

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	revoked, err := svc.IsAccessTokenRevoked(ctx, accessClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestLogout_IsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	_, pair := registerAndLogin(t, svc, "ada")

	claims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID, "", time.Time{}))
	require.NoError(t, svc.Logout(ctx, claims.ID, "", time.Time{}))

	// Unknown jtis are fine too.
	require.NoError(t, svc.Logout(ctx, uuid.NewString(), "", time.Time{}))
}

func TestRevokeSession_OwnSession(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	require.NoError(t, svc.RevokeSession(ctx, user.ID, sessions[0].ID))

	sessions, err = svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// The backing refresh token went with it.
	claims, err := svc.ParseRefreshClaims(pair.RefreshToken)
	require.NoError(t, err)

	var token authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", claims.ID).First(&token).Error)
	assert.True(t, token.IsRevoked)
}

func TestRevokeSession_CannotTouchOtherUsers(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	victim, victimPair := registerAndLogin(t, svc, "ada")
	attacker, _ := registerAndLogin(t, svc, "mallory")

	victimSessions, err := svc.GetActiveSessions(ctx, victim.ID)
	require.NoError(t, err)
	require.Len(t, victimSessions, 1)

	err = svc.RevokeSession(ctx, attacker.ID, victimSessions[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing was revoked.
	victimSessions, err = svc.GetActiveSessions(ctx, victim.ID)
	require.NoError(t, err)
	assert.Len(t, victimSessions, 1)

	claims, err := svc.ParseRefreshClaims(victimPair.RefreshToken)
	require.NoError(t, err)

	var token authmodels.RefreshToken
	require.NoError(t, db.Where("jti = ?", claims.ID).First(&token).Error)
	assert.False(t, token.IsRevoked)
}

func TestRevokeAllSessions(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	user, _ := registerAndLogin(t, svc, "ada")
	_, err := svc.Login(ctx, "ada", "securepassword", DeviceInfo{Device: "Safari on iPhone"})
	require.NoError(t, err)

	other, _ := registerAndLogin(t, svc, "grace")

	require.NoError(t, svc.RevokeAllSessions(ctx, user.ID))

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	var live int64
	require.NoError(t, db.Model(&authmodels.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", user.ID, false).
		Count(&live).Error)
	assert.Zero(t, live)

	// Other users are untouched.
	otherSessions, err := svc.GetActiveSessions(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, otherSessions, 1)
}

func TestRevokeAllTokens_IncludesPresentedAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	accessClaims, err := svc.ParseAccessClaims(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllTokens(ctx, user.ID, accessClaims.ID, accessClaims.ExpiresAt.Time))

	revoked, err := svc.IsAccessTokenRevoked(ctx, accessClaims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestGetActiveSessions_ExcludesExpired(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, svc, "ada")

	stale := authmodels.RefreshToken{
		Token:     "stale",
		JTI:       uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&authmodels.UserSession{
		UserID:    user.ID,
		TokenID:   stale.ID,
		Device:    "old laptop",
		ExpiresAt: stale.ExpiresAt,
	}).Error)

	sessions, err := svc.GetActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Firefox on Linux", sessions[0].Device)
}

func TestGetAllActiveUsersAndSessions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	ada, _ := registerAndLogin(t, svc, "ada")
	_, err := svc.Login(ctx, "ada", "securepassword", DeviceInfo{Device: "Safari on iPhone"})
	require.NoError(t, err)
	grace, _ := registerAndLogin(t, svc, "grace")

	users, err := svc.GetAllActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	seen := map[uuid.UUID]bool{}
	for _, u := range users {
		seen[u.ID] = true
		assert.NotEmpty(t, u.Username)
	}
	assert.True(t, seen[ada.ID])
	assert.True(t, seen[grace.ID])

	sessions, err := svc.GetAllActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.NotEqual(t, uuid.Nil, s.User.ID)
		assert.NotEmpty(t, s.User.Username)
	}
}

func TestGetUserRoleByID_MissingUserIsSoft(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	role, err := svc.GetUserRoleByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestResolveAccessToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	claims, resolved, err := svc.ResolveAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, RoleUser, resolved.Role.Name)
	assert.Empty(t, resolved.Password)
	assert.Equal(t, user.ID.String(), claims.UserID)
}

func TestResolveAccessToken_RevokedToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	_, pair := registerAndLogin(t, svc, "ada")

	claims, err := svc.ParseAccessClaims(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.RecordRevokedAccessToken(ctx, claims.ID, claims.ExpiresAt.Time))

	_, _, err = svc.ResolveAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveAccessToken_Garbage(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, _, err := svc.ResolveAccessToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveAccessToken_DeletedUser(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	user, pair := registerAndLogin(t, svc, "ada")

	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	_, _, err := svc.ResolveAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
