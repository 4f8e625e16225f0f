package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

type cachedLocation struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestAside_MissThenHit(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]cachedLocation) func() error {
		return func() error {
			calls++
			*dest = []cachedLocation{{ID: 1, Name: "Perth"}}
			return nil
		}
	}

	var first []cachedLocation
	require.NoError(t, Aside(ctx, LocationsKey, &first, CatalogTTL, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Perth", first[0].Name)

	var second []cachedLocation
	require.NoError(t, Aside(ctx, LocationsKey, &second, CatalogTTL, fetch(&second)))
	assert.Equal(t, 1, calls, "second read served from cache")
	assert.Equal(t, first, second)

	InvalidateCatalog(ctx)
	var third []cachedLocation
	require.NoError(t, Aside(ctx, LocationsKey, &third, CatalogTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsReturned(t *testing.T) {
	useMiniredis(t)
	want := errors.New("db down")

	var dest []cachedLocation
	err := Aside(context.Background(), CategoriesKey, &dest, CatalogTTL, func() error { return want })
	assert.ErrorIs(t, err, want)

	found, err := GetJSON(context.Background(), CategoriesKey, &dest)
	require.NoError(t, err)
	assert.False(t, found, "failed fetches are not cached")
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest int
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "k", &dest, time.Minute, func() error {
			calls++
			dest = 5
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 5, dest)
}

func TestAside_CorruptEntryFallsBackToFetch(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set(UserKey(3), "{not json"))

	var dest cachedLocation
	err := Aside(context.Background(), UserKey(3), &dest, UserTTL, func() error {
		dest = cachedLocation{ID: 3, Name: "fresh"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", dest.Name)
}

func TestTokenRevocation(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	assert.False(t, IsTokenRevoked(ctx, "jti-1"))
	require.NoError(t, RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.True(t, IsTokenRevoked(ctx, "jti-1"))
	assert.False(t, IsTokenRevoked(ctx, ""))

	mr.FastForward(2 * time.Hour)
	assert.False(t, IsTokenRevoked(ctx, "jti-1"), "entry expires with the token")
}

func TestTokenRevocation_WithoutRedis(t *testing.T) {
	SetClient(nil)
	assert.NoError(t, RevokeToken(context.Background(), "jti", time.Now().Add(time.Hour)))
	assert.False(t, IsTokenRevoked(context.Background(), "jti"))
}
