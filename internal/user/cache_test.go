package user

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client), mr
}

func testUser() *User {
	return &User{
		ID:       uuid.New(),
		FullName: "Cache User",
		Email:    "cache@example.com",
		Role:     RoleCustomer,
	}
}

func TestCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	p, err := cache.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(t)
	u := testUser()

	require.NoError(t, cache.Set(context.Background(), u))

	p, err := cache.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "Cache User", p.Name)
	assert.Equal(t, "cache@example.com", p.Email)
	assert.Equal(t, RoleCustomer, p.Role)
}

func TestCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	u := testUser()

	require.NoError(t, cache.Set(context.Background(), u))
	require.NoError(t, cache.Invalidate(context.Background(), u.ID))

	p, err := cache.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCache_EntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t)
	u := testUser()

	require.NoError(t, cache.Set(context.Background(), u))

	mr.FastForward(cacheTTL + time.Second)

	p, err := cache.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCache_NeverStoresPasswordHash(t *testing.T) {
	cache, mr := newTestCache(t)
	u := testUser()
	u.PasswordHash = "$argon2id$secret"

	require.NoError(t, cache.Set(context.Background(), u))

	raw, err := mr.Get(cacheKeyPrefix + u.ID.String())
	require.NoError(t, err)
	assert.NotContains(t, raw, "argon2id")
}
