package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/geo"
)

func setupMockRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLockStore_AcquireRelease(t *testing.T) {
	client, mr := setupMockRedis(t)
	store := NewLockStore(client)
	ctx := context.Background()

	token, err := store.AcquireDriverLock(ctx, "driver-1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	second, err := store.AcquireDriverLock(ctx, "driver-1", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second, "lock should be held")

	require.NoError(t, store.ReleaseDriverLock(ctx, "driver-1", token))
	assert.False(t, mr.Exists("lock:accept:driver:driver-1"))

	third, err := store.AcquireDriverLock(ctx, "driver-1", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, third)
}

func TestLockStore_ReleaseWithStaleTokenKeepsLock(t *testing.T) {
	client, mr := setupMockRedis(t)
	store := NewLockStore(client)
	ctx := context.Background()

	token, err := store.AcquireDriverLock(ctx, "driver-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.ReleaseDriverLock(ctx, "driver-1", "someone-else"))
	assert.True(t, mr.Exists("lock:accept:driver:driver-1"))

	require.NoError(t, store.ReleaseDriverLock(ctx, "driver-1", token))
	assert.False(t, mr.Exists("lock:accept:driver:driver-1"))
}

func TestLockStore_Expires(t *testing.T) {
	client, mr := setupMockRedis(t)
	store := NewLockStore(client)
	ctx := context.Background()

	_, err := store.AcquireDriverLock(ctx, "driver-1", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	token, err := store.AcquireDriverLock(ctx, "driver-1", time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestPlaceStore_SaveLookup(t *testing.T) {
	client, _ := setupMockRedis(t)
	store := NewPlaceStore(client)
	ctx := context.Background()

	miss, err := store.LookupPlace(ctx, "kochi")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, store.SavePlace(ctx, "kochi", geo.Point{Lat: 9.9312, Lng: 76.2673}))
	require.NoError(t, store.SavePlace(ctx, "trivandrum", geo.Point{Lat: 8.5241, Lng: 76.9366}))

	hit, err := store.LookupPlace(ctx, "kochi")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.InDelta(t, 9.9312, hit.Lat, 1e-4)
	assert.InDelta(t, 76.2673, hit.Lng, 1e-4)

	names, err := store.NearbyPlaces(ctx, geo.Point{Lat: 9.93, Lng: 76.26}, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"kochi"}, names)
}

func TestRouteCache_RoundTripAndTTL(t *testing.T) {
	client, mr := setupMockRedis(t)
	cache := NewRouteCache(client)
	ctx := context.Background()

	miss, err := cache.GetRoute(ctx, "a:b")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.SetRoute(ctx, "a:b", geo.Route{DistanceKm: 205.3, DurationSeconds: 16200}, time.Minute))

	hit, err := cache.GetRoute(ctx, "a:b")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 205.3, hit.DistanceKm)

	mr.FastForward(2 * time.Minute)
	gone, err := cache.GetRoute(ctx, "a:b")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
