package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	LocationsKey   = "catalog:locations"
	CategoriesKey  = "catalog:categories"
	PledgeTypesKey = "catalog:pledge_types"

	revokedTokenPrefix = "blacklist:"
)

const (
	UserTTL    = 5 * time.Minute
	CatalogTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Invalidate deletes key; it is a no-op without Redis.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateCatalog drops the cached location, category and pledge type lists.
func InvalidateCatalog(ctx context.Context) {
	Invalidate(ctx, LocationsKey)
	Invalidate(ctx, CategoriesKey)
	Invalidate(ctx, PledgeTypesKey)
}
