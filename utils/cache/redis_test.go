package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url")
	assert.Error(t, err)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache("redis://127.0.0.1:1/0")
	assert.Error(t, err)
}

func TestRedisCache_ErrorsSurfaceWhenDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "test:")
	defer c.Close()

	ctx := context.Background()

	_, found, err := c.Get(ctx, "frames:1")
	require.Error(t, err)
	assert.False(t, found)

	assert.Error(t, c.Set(ctx, "frames:1", []byte("[]"), time.Minute))
	assert.Error(t, c.Delete(ctx, "frames:1"))
	assert.NoError(t, c.Delete(ctx))
}
