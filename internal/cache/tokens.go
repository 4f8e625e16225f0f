package cache

import (
	"context"
	"time"
)

// RevokeToken blacklists a token ID until the token would have expired.
// Without Redis revocation is impossible and an error-free no-op.
func RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if client == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return client.Set(ctx, revokedTokenPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked reports whether the token ID was blacklisted. Lookup
// failures are treated as not revoked.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, revokedTokenPrefix+jti).Result()
	return err == nil && n > 0
}
