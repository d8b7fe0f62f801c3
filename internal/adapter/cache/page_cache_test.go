package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-browser-service/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func testPage() []domain.Record {
	return []domain.Record{
		{ID: "a1", FirstName: "John", LastName: "Smith", Email: "j@x.com"},
		{ID: "b2", FirstName: "Ann", LastName: "Lee", Email: "ann@smith.io"},
	}
}

func TestRedisPageCache_Set_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	req := domain.NewPageRequest(2, 50, "abc")
	err := cache.Set(context.Background(), req, testPage())
	require.NoError(t, err)

	// Verify data is in Redis
	data, err := client.Get(context.Background(), "randomuser:page:abc:50:2").Bytes()
	require.NoError(t, err)

	var cached []domain.Record
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, testPage(), cached)
}

func TestRedisPageCache_Set_NilPage(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	err := cache.Set(context.Background(), domain.NewPageRequest(1, 10, ""), nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cache nil page")
}

func TestRedisPageCache_Get_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	req := domain.NewPageRequest(1, 10, "")
	require.NoError(t, cache.Set(context.Background(), req, testPage()))

	cached, found, err := cache.Get(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, testPage(), cached)
}

func TestRedisPageCache_Get_EmptyPageIsAHit(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	req := domain.NewPageRequest(9, 10, "abc")
	require.NoError(t, cache.Set(context.Background(), req, []domain.Record{}))

	cached, found, err := cache.Get(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, cached)
}

func TestRedisPageCache_Get_CacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	cached, found, err := cache.Get(context.Background(), domain.NewPageRequest(99, 10, ""))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, cached)
}

func TestRedisPageCache_Get_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	require.NoError(t, mr.Set("randomuser:page:-:10:1", "{garbage"))

	_, found, err := cache.Get(context.Background(), domain.NewPageRequest(1, 10, ""))
	assert.Error(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("randomuser:page:-:10:1"))
}

func TestRedisPageCache_Delete_Success(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewRedisPageCache(client, 5*time.Minute, zaptest.NewLogger(t))

	req := domain.NewPageRequest(1, 10, "")
	require.NoError(t, cache.Set(context.Background(), req, testPage()))
	require.NoError(t, cache.Delete(context.Background(), req))

	_, found, err := cache.Get(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisPageCache_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisPageCache(client, 2*time.Second, zaptest.NewLogger(t))

	req := domain.NewPageRequest(1, 10, "")
	require.NoError(t, cache.Set(context.Background(), req, testPage()))

	// Fast forward time in miniredis
	mr.FastForward(3 * time.Second)

	_, found, err := cache.Get(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, found)
}
