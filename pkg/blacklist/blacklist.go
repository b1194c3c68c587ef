package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blacklist:access:"

// TokenBlacklist tracks revoked access tokens by their jti in Redis. Entries
// expire together with the token they revoke.
type TokenBlacklist struct {
	redis *redis.Client
	now   func() time.Time
}

func NewTokenBlacklist(redisClient *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{
		redis: redisClient,
		now:   time.Now,
	}
}

func key(tokenID string) string {
	return keyPrefix + tokenID
}

// Revoke blacklists tokenID until expiresAt. Already expired tokens are
// ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("token id is required")
	}

	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}

	return nil
}

// IsRevoked checks if a token is in the blacklist
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := b.redis.Exists(ctx, key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (b *TokenBlacklist) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx).Err()
}
