package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"penacms-backend/shared/database/models"
)

// RefreshToken backs one login session. A new row is created at login and at
// every rotation; the replaced row is flipped to is_revoked=true and never
// reused.
type RefreshToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Token     string    `json:"-" gorm:"size:500;not null"`
	JTI       string    `json:"jti" gorm:"size:64;uniqueIndex;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	IsRevoked bool      `json:"is_revoked" gorm:"default:false"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User models.User `json:"-" gorm:"foreignKey:UserID"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
