package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"penacms-backend/shared/database/models"
	authmodels "penacms-backend/shared/database/models/auth"
	utils "penacms-backend/shared/utils/auth"
)

// DeviceInfo describes the device/browser behind a login, taken from request
// headers by the HTTP layer.
type DeviceInfo struct {
	Device   string
	DeviceID *string
	IP       *string
	Lat      *float64
	Long     *float64
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionInfo is session metadata safe to show the owner. It never carries
// the raw refresh token value.
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	Device    string    `json:"device"`
	DeviceID  *string   `json:"device_id"`
	IP        *string   `json:"ip"`
	Lat       *float64  `json:"lat"`
	Long      *float64  `json:"long"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveUser is the administrative summary of a user with at least one live
// session.
type ActiveUser struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// ActiveSession pairs session metadata with its owner, for administrative
// visibility.
type ActiveSession struct {
	SessionInfo
	User ActiveUser `json:"user"`
}

// Service orchestrates registration, login, refresh, logout and revocation
// over the injected data-access handle. It holds no mutable state of its own;
// all coordination happens through atomic single-row store operations.
type Service struct {
	db      *gorm.DB
	issuer  *TokenIssuer
	revoked RevocationStore
}

func NewService(db *gorm.DB, issuer *TokenIssuer, revoked RevocationStore) *Service {
	return &Service{db: db, issuer: issuer, revoked: revoked}
}

// Register creates a user with the default "user" role and an empty profile.
// The returned user never carries the password hash.
func (s *Service) Register(ctx context.Context, name, email, username, password string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var role models.Role
	if err := db.Where("name = ?", RoleUser).First(&role).Error; err != nil {
		return nil, err
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Username: username,
		Password: hashed,
		RoleID:   &role.ID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.Profile{UserID: user.ID}
		return tx.Create(&profile).Error
	})
	if err != nil {
		// The pre-check and the insert are not one serializable unit, so a
		// racing duplicate surfaces here as a unique-constraint failure.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}

	user.Password = ""
	return &user, nil
}

// Login verifies credentials, mints an access/refresh pair and records the
// session. Unknown user and wrong password fail identically.
func (s *Service) Login(ctx context.Context, username, password string, device DeviceInfo) (*TokenPair, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	access, err := s.issuer.MintAccess(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.MintRefresh(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		token := authmodels.RefreshToken{
			Token:     refresh.Token,
			JTI:       refresh.JTI,
			UserID:    user.ID,
			ExpiresAt: refresh.ExpiresAt,
		}
		if err := tx.Create(&token).Error; err != nil {
			return err
		}

		session := authmodels.UserSession{
			UserID:    user.ID,
			TokenID:   token.ID,
			Device:    device.Device,
			DeviceID:  device.DeviceID,
			IP:        device.IP,
			Lat:       device.Lat,
			Long:      device.Long,
			ExpiresAt: refresh.ExpiresAt,
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token: the old token is revoked, the presented
// access token (if any) is recorded as revoked, and a brand-new pair backs
// the same logical session. Refresh tokens are single-use.
func (s *Service) Refresh(ctx context.Context, refreshJTI, accessJTI string, accessExp time.Time) (*TokenPair, error) {
	db := s.db.WithContext(ctx)

	var old authmodels.RefreshToken
	if err := db.Where("jti = ?", refreshJTI).First(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if old.IsRevoked || !old.ExpiresAt.After(time.Now()) {
		return nil, ErrInvalidToken
	}

	// Session linkage is the source of truth: a token whose session was
	// revoked out-of-band is invalid even before its revoke flag flips.
	var session authmodels.UserSession
	if err := db.Where("token_id = ?", old.ID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	var user models.User
	if err := db.Where("id = ?", old.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	access, err := s.issuer.MintAccess(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.MintRefresh(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Compare-and-swap on the revoke flag: of two concurrent refreshes
		// presenting the same token, only the one that flips it mints.
		res := tx.Model(&authmodels.RefreshToken{}).
			Where("id = ? AND is_revoked = ?", old.ID, false).
			Update("is_revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidToken
		}

		token := authmodels.RefreshToken{
			Token:     refresh.Token,
			JTI:       refresh.JTI,
			UserID:    user.ID,
			ExpiresAt: refresh.ExpiresAt,
		}
		if err := tx.Create(&token).Error; err != nil {
			return err
		}

		// Same logical session continues under the new token.
		return tx.Model(&authmodels.UserSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"token_id":   token.ID,
				"expires_at": refresh.ExpiresAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// Rotation invalidates the whole old pair.
	if accessJTI != "" && accessExp.After(time.Now()) {
		if err := s.revoked.Record(ctx, accessJTI, accessExp); err != nil {
			return nil, err
		}
	}

	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Logout revokes the refresh token, deletes its session and records the
// still-valid access token as revoked. Logging out twice with the same
// refresh token is not an error.
func (s *Service) Logout(ctx context.Context, refreshJTI, accessJTI string, accessExp time.Time) error {
	db := s.db.WithContext(ctx)

	var token authmodels.RefreshToken
	err := db.Where("jti = ?", refreshJTI).First(&token).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err == nil {
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&authmodels.RefreshToken{}).
				Where("id = ?", token.ID).
				Update("is_revoked", true).Error; err != nil {
				return err
			}
			return tx.Where("token_id = ?", token.ID).
				Delete(&authmodels.UserSession{}).Error
		})
		if err != nil {
			return err
		}
	}

	if accessJTI != "" && accessExp.After(time.Now()) {
		return s.revoked.Record(ctx, accessJTI, accessExp)
	}
	return nil
}

// RevokeSession revokes one of the user's own sessions. A session id that
// does not belong to the user fails with ErrNotFound and revokes nothing.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	db := s.db.WithContext(ctx)

	var session authmodels.UserSession
	if err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&authmodels.RefreshToken{}).
			Where("id = ?", session.TokenID).
			Update("is_revoked", true).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", session.ID).
			Delete(&authmodels.UserSession{}).Error
	})
}

// RevokeAllSessions revokes every non-revoked refresh token of the user and
// deletes all of their sessions.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&authmodels.RefreshToken{}).
			Where("user_id = ? AND is_revoked = ?", userID, false).
			Update("is_revoked", true).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).
			Delete(&authmodels.UserSession{}).Error
	})
}

// RevokeAllTokens is "log out everywhere": all refresh tokens and sessions
// go, plus the access token the caller presented.
func (s *Service) RevokeAllTokens(ctx context.Context, userID uuid.UUID, accessJTI string, accessExp time.Time) error {
	if err := s.RevokeAllSessions(ctx, userID); err != nil {
		return err
	}
	if accessJTI != "" && accessExp.After(time.Now()) {
		return s.revoked.Record(ctx, accessJTI, accessExp)
	}
	return nil
}

// GetActiveSessions lists the user's unexpired sessions.
func (s *Service) GetActiveSessions(ctx context.Context, userID uuid.UUID) ([]SessionInfo, error) {
	var sessions []authmodels.UserSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, sessionInfo(session))
	}
	return infos, nil
}

// GetAllActiveSessions lists every unexpired session with its owner.
// Privileged, read-only.
func (s *Service) GetAllActiveSessions(ctx context.Context) ([]ActiveSession, error) {
	var sessions []authmodels.UserSession
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "username", "email")
		}).
		Where("expires_at > ?", time.Now()).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	out := make([]ActiveSession, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, ActiveSession{
			SessionInfo: sessionInfo(session),
			User: ActiveUser{
				ID:       session.User.ID,
				Name:     session.User.Name,
				Username: session.User.Username,
				Email:    session.User.Email,
			},
		})
	}
	return out, nil
}

// GetAllActiveUsers lists users with at least one unexpired session.
// Privileged, read-only.
func (s *Service) GetAllActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	var users []ActiveUser
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Distinct("users.id", "users.name", "users.username", "users.email").
		Joins("JOIN user_sessions ON user_sessions.user_id = users.id").
		Where("user_sessions.expires_at > ?", time.Now()).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserRoleByID resolves a user's role name. Missing user or role yields
// the empty string with no error; callers treat that as deny.
func (s *Service) GetUserRoleByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if user.RoleID == nil {
		return "", nil
	}
	return user.Role.Name, nil
}

// IsAccessTokenRevoked reports whether the jti is in the revocation registry
// and still within its recorded expiry.
func (s *Service) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revoked.IsRevoked(ctx, jti)
}

// RecordRevokedAccessToken appends a jti to the revocation registry.
// Idempotent.
func (s *Service) RecordRevokedAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return s.revoked.Record(ctx, jti, expiresAt)
}

// ParseAccessClaims validates an access token string. Failures map to
// ErrUnauthorized without detail.
func (s *Service) ParseAccessClaims(tokenString string) (*Claims, error) {
	claims, err := s.issuer.ParseAccess(tokenString)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// ParseRefreshClaims validates a refresh token string. Failures map to
// ErrInvalidToken without detail.
func (s *Service) ParseRefreshClaims(tokenString string) (*Claims, error) {
	claims, err := s.issuer.ParseRefresh(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ResolveAccessToken is the resolver behind every protected route: it
// validates the bearer token, checks the revocation registry and loads the
// user with their role. A store failure surfaces as-is and must not be read
// as "token invalid".
func (s *Service) ResolveAccessToken(ctx context.Context, tokenString string) (*Claims, *models.User, error) {
	claims, err := s.ParseAccessClaims(tokenString)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Role").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	user.Password = ""
	return claims, &user, nil
}

func sessionInfo(session authmodels.UserSession) SessionInfo {
	return SessionInfo{
		ID:        session.ID,
		Device:    session.Device,
		DeviceID:  session.DeviceID,
		IP:        session.IP,
		Lat:       session.Lat,
		Long:      session.Long,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
}
