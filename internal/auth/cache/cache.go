// Package cache implements the Redis-backed user cache: memoized principal
// lookups and the single-use password-reset token records.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"contacts_backend/internal/auth/identity"
	"contacts_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix  = "get_user_from_cache:"
	resetKeyPrefix = "reset_token:"

	// RecordTTL applies to both cached principals and reset-token records.
	RecordTTL = 3600 * time.Second
)

// principalRecord is the explicit serialization schema for cached principals.
// Field names are part of the wire format shared with any cache entries
// already in flight; do not rename them.
type principalRecord struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Verified  bool    `json:"is_verified"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"roles"`
}

// Cache wraps a Redis client with the auth domain's key schema.
type Cache struct {
	rdb *redis.Client
	log *logger.Logger
}

// New creates a Cache on top of the given Redis client.
func New(rdb *redis.Client, log *logger.Logger) *Cache {
	return &Cache{rdb: rdb, log: log}
}

// GetPrincipal returns the cached principal for email. A miss, an infra
// failure, or an undecodable record all report !ok; read failures are logged
// and treated as misses so the directory fallback can run.
func (c *Cache) GetPrincipal(ctx context.Context, email string) (identity.Principal, bool) {
	key := userKeyPrefix + email

	payload, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.CacheError("get_principal", key, err)
		}
		return identity.Principal{}, false
	}

	var record principalRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		c.log.Warn("invalid cached principal", "key", key, "error", err.Error())
		return identity.Principal{}, false
	}

	role, err := identity.ParseRole(record.Role)
	if err != nil {
		c.log.Warn("invalid cached principal", "key", key, "error", err.Error())
		return identity.Principal{}, false
	}

	return identity.Principal{
		ID:        record.ID,
		Email:     record.Email,
		Verified:  record.Verified,
		AvatarURL: record.AvatarURL,
		Role:      role,
	}, true
}

// SetPrincipal stores the principal with the record TTL. Writes are
// best-effort: failures are logged and never surface to the caller.
func (c *Cache) SetPrincipal(ctx context.Context, principal identity.Principal) {
	key := userKeyPrefix + principal.Email

	payload, err := json.Marshal(principalRecord{
		ID:        principal.ID,
		Email:     principal.Email,
		Verified:  principal.Verified,
		AvatarURL: principal.AvatarURL,
		Role:      string(principal.Role),
	})
	if err != nil {
		c.log.CacheError("set_principal", key, err)
		return
	}

	if err := c.rdb.SetEx(ctx, key, payload, RecordTTL).Err(); err != nil {
		c.log.CacheError("set_principal", key, err)
	}
}

// DeletePrincipal invalidates the cached principal after a directory mutation.
func (c *Cache) DeletePrincipal(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, userKeyPrefix+email).Err()
}

// SetResetToken records that a reset token was issued for email. The record
// is the sole proof of issuance consumed by ResetPassword.
func (c *Cache) SetResetToken(ctx context.Context, rawToken, email string) error {
	return c.rdb.SetEx(ctx, resetKeyPrefix+rawToken, email, RecordTTL).Err()
}

// GetResetToken looks up the email a reset token was issued for.
// ok is false when no record exists; infra errors propagate since this read
// is on the correctness path.
func (c *Cache) GetResetToken(ctx context.Context, rawToken string) (string, bool, error) {
	email, err := c.rdb.Get(ctx, resetKeyPrefix+rawToken).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return email, true, nil
}

// DeleteResetToken consumes a reset token record.
func (c *Cache) DeleteResetToken(ctx context.Context, rawToken string) error {
	return c.rdb.Del(ctx, resetKeyPrefix+rawToken).Err()
}
