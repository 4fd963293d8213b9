package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedTokenKeyPrefix = "rehab-service-revoked||"

var _ RevocationChecker = (*RedisRevocationList)(nil)

// RedisRevocationList keeps revoked token ids in redis, shared with the identity provider.
// Each entry expires together with the token it revokes, so the list cleans itself up.
type RedisRevocationList struct {
	redisClient *redis.Client
	// ability to inject the clock (for unit testing)
	nowFunc func() time.Time
}

func NewRedisRevocationList(redisClient *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		redisClient: redisClient,
		nowFunc:     time.Now,
	}
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	cmd := l.redisClient.Exists(ctx, revokedTokenKeyPrefix+tokenID)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	return cmd.Val() > 0, nil
}

// Revoke marks the token id as revoked until ttl passes (use the token's remaining lifetime).
func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("token id empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	return l.redisClient.Set(ctx, revokedTokenKeyPrefix+tokenID, l.nowFunc().Unix(), ttl).Err()
}
