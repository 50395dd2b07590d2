package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestLockIsExclusive(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "finalize:table:7", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = c.AcquireLock(ctx, "finalize:table:7", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	released, err := c.ReleaseLock(ctx, "finalize:table:7", token)
	require.NoError(t, err)
	assert.True(t, released)

	_, ok, err = c.AcquireLock(ctx, "finalize:table:7", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseLockIgnoresForeignToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "finalize:table:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// lock expires and another owner takes it
	mr.FastForward(2 * time.Second)
	other, ok, err := c.AcquireLock(ctx, "finalize:table:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := c.ReleaseLock(ctx, "finalize:table:1", token)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, other, mustGet(t, mr, "lock:finalize:table:1"))
}

func TestIdempotencyKeys(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, found, err := c.LookupIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.RememberIdempotencyKey(ctx, "abc", 42, time.Hour))
	orderID, found, err := c.LookupIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), orderID)

	mr.FastForward(2 * time.Hour)
	_, found, err = c.LookupIdempotencyKey(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONCache(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	type entry struct {
		Name string `json:"name"`
	}

	var got entry
	assert.ErrorIs(t, c.GetJSON(ctx, "products", &got), ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "products", entry{Name: "Naan"}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, "products", &got))
	assert.Equal(t, "Naan", got.Name)

	require.NoError(t, c.Invalidate(ctx, "products"))
	assert.ErrorIs(t, c.GetJSON(ctx, "products", &got), ErrCacheMiss)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	mr.Close()
	assert.Error(t, c.Ping(ctx))
}
