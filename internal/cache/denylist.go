package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	denylistPrefix = "jwt_denylist:"
	cutoffPrefix   = "jwt_cutoff:"
)

// Denylist remembers revoked access token ids until they would have expired anyway.
type Denylist struct {
	Client *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{Client: client}
}

func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if d == nil || d.Client == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := d.Client.Set(ctx, denylistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to denylist token: %w", err)
	}
	return nil
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.Client == nil {
		return false, nil
	}
	n, err := d.Client.Exists(ctx, denylistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check denylist: %w", err)
	}
	return n > 0, nil
}

// RevokeUserBefore rejects every access token of userID issued before at.
// The cutoff lives for ttl, the longest an access token stays valid.
func (d *Denylist) RevokeUserBefore(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	if d == nil || d.Client == nil || ttl <= 0 {
		return nil
	}
	cutoff := strconv.FormatInt(at.Unix(), 10)
	if err := d.Client.Set(ctx, cutoffPrefix+userID, cutoff, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session cutoff: %w", err)
	}
	return nil
}

// RevokedBefore returns the session cutoff for userID, or the zero time.
func (d *Denylist) RevokedBefore(ctx context.Context, userID string) (time.Time, error) {
	if d == nil || d.Client == nil {
		return time.Time{}, nil
	}
	v, err := d.Client.Get(ctx, cutoffPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to check session cutoff: %w", err)
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt session cutoff for %s: %w", userID, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}
