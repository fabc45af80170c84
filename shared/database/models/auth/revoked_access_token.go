package auth

import "time"

// RevokedAccessToken is an append-only record keyed by the access token's
// jti. Membership only counts while expires_at is in the future, so stale
// rows are logically dead and cleanup is an optimization, not a correctness
// requirement.
type RevokedAccessToken struct {
	JTI       string    `json:"jti" gorm:"size:64;primaryKey"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
