package auth

import (
	"context"
	"time"

	"portal-backend/internal/shared/cache"
)

const revokedTokenKeyPrefix = "denylist:token:"

// Denylist records token ids revoked before their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist stores revoked token ids in Redis until they would expire anyway.
type RedisDenylist struct {
	cache *cache.Client
}

var _ Denylist = (*RedisDenylist)(nil)

// NewRedisDenylist creates a denylist on top of c.
func NewRedisDenylist(c *cache.Client) *RedisDenylist {
	return &RedisDenylist{cache: c}
}

// Revoke marks tokenID as revoked for ttl. Expired tokens need no entry.
func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return d.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked reports whether tokenID was revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return d.cache.Exists(ctx, revokedTokenKeyPrefix+tokenID)
}
