package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestCache(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return New(rdb, zap.NewNop()), mr
}

func TestClient_GetSetDelete(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, "courses:published"))

	c.Set(ctx, "courses:published", []byte(`[]`), time.Minute)
	assert.Equal(t, []byte(`[]`), c.Get(ctx, "courses:published"))
	assert.True(t, mr.Exists("courses:published"))

	mr.FastForward(2 * time.Minute)
	assert.Nil(t, c.Get(ctx, "courses:published"))

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), time.Minute)
	c.Delete(ctx, "a", "b")
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestClient_JSON(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}

	c.SetJSON(ctx, "entry", []entry{{Name: "Go Basics"}}, time.Minute)

	var got []entry
	require.True(t, c.GetJSON(ctx, "entry", &got))
	assert.Equal(t, []entry{{Name: "Go Basics"}}, got)

	require.NoError(t, mr.Set("entry", "{corrupt"))
	assert.False(t, c.GetJSON(ctx, "entry", &got))
}

func TestClient_FailSafe(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { rdb.Close() })
	c := New(rdb, zap.NewNop())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", []byte("v"), time.Minute)
		c.Delete(ctx, "k")
	})
	assert.Nil(t, c.Get(ctx, "k"))

	var nilClient *Client
	assert.Nil(t, nilClient.Get(ctx, "k"))
	assert.False(t, nilClient.GetJSON(ctx, "k", &struct{}{}))
	assert.NotPanics(t, func() { nilClient.SetJSON(ctx, "k", 1, time.Minute) })
}
