package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authmodels "penacms-backend/shared/database/models/auth"
)

// RevocationStore tracks revoked access-token jtis until their natural
// expiry. Access tokens are stateless, so this set is the escape hatch that
// makes logout and forced revocation effective before the token expires.
type RevocationStore interface {
	// Record is an idempotent append; recording a jti twice must not error.
	Record(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked is true iff the jti was recorded and its expiry is still in
	// the future.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type dbRevocationStore struct {
	db *gorm.DB
}

// NewDBRevocationStore returns a RevocationStore backed by the
// revoked_access_tokens table. Used directly in tests and as the fallback
// when Redis is not reachable.
func NewDBRevocationStore(db *gorm.DB) RevocationStore {
	return &dbRevocationStore{db: db}
}

func (s *dbRevocationStore) Record(ctx context.Context, jti string, expiresAt time.Time) error {
	record := authmodels.RevokedAccessToken{JTI: jti, ExpiresAt: expiresAt}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "jti"}},
			DoUpdates: clause.AssignmentColumns([]string{"expires_at"}),
		}).
		Create(&record).Error
}

func (s *dbRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var record authmodels.RevokedAccessToken
	err := s.db.WithContext(ctx).Where("jti = ?", jti).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.ExpiresAt.After(time.Now()), nil
}
