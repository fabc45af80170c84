package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"penacms-backend/shared/database/models"
)

// UserSession - one row per authenticated device/browser instance. Each live
// session is backed by exactly one non-revoked, non-expired refresh token;
// revoking that token deletes the session.
type UserSession struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TokenID   uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	Device    string    `json:"device" gorm:"size:255;not null"`
	DeviceID  *string   `json:"device_id" gorm:"size:255"`
	IP        *string   `json:"ip" gorm:"size:50"`
	Lat       *float64  `json:"lat"`
	Long      *float64  `json:"long"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User  models.User  `json:"user" gorm:"foreignKey:UserID"`
	Token RefreshToken `json:"-" gorm:"foreignKey:TokenID"`
}

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
