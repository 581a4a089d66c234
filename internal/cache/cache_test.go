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

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:7:profile", UserProfileKey(7))
	assert.Equal(t, "post:42", PostKey(42))
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "first"}
			return nil
		}
	}

	var a cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &a, time.Minute, fetch(&a)))
	assert.Equal(t, "first", a.Name)
	assert.True(t, mr.Exists("thing:1"))

	var b cachedThing
	require.NoError(t, Aside(ctx, "thing:1", &b, time.Minute, fetch(&b)))
	assert.Equal(t, "first", b.Name)
	assert.Equal(t, 1, calls)

	ttl := mr.TTL("thing:1")
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupMiniRedis(t)
	boom := errors.New("boom")

	var dest cachedThing
	err := Aside(context.Background(), "thing:2", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("thing:2"))
}

func TestAside_NoClientCallsFetch(t *testing.T) {
	SetClient(nil)

	var dest cachedThing
	err := Aside(context.Background(), "thing:3", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestAside_RedisDownFallsBackToFetch(t *testing.T) {
	mr := setupMiniRedis(t)
	mr.Close()

	var dest cachedThing
	err := Aside(context.Background(), "thing:4", &dest, time.Minute, func() error {
		dest.Name = "db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "db", dest.Name)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupMiniRedis(t)
	require.NoError(t, mr.Set(UserProfileKey(1), "{}"))
	require.NoError(t, mr.Set(UserProfileKey(2), "{}"))
	require.NoError(t, mr.Set(PostKey(1), "{}"))

	InvalidateUser(context.Background(), 1, 2)
	InvalidatePost(context.Background(), 1)

	assert.False(t, mr.Exists(UserProfileKey(1)))
	assert.False(t, mr.Exists(UserProfileKey(2)))
	assert.False(t, mr.Exists(PostKey(1)))
}

func TestInitRedis_UnreachableLeavesClientNil(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())
}
