package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore returns a RevocationStore keyed by jti with
// TTL-bounded membership. The key expires together with the access token, so
// the set stays small without any cleanup job.
func NewRedisRevocationStore(client *redis.Client) RevocationStore {
	return &redisRevocationStore{client: client}
}

func revokedKey(jti string) string {
	return "auth:revoked:" + jti
}

func (s *redisRevocationStore) Record(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already past its natural expiry; membership would be dead on
		// arrival.
		return nil
	}
	return s.client.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
