package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("test")

	require.NoError(t, c.Set(ctx, "k", "v", 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))

	_, err = c.Get(ctx, "k")
	assert.True(t, IsNotFound(err))
}

func TestMemory_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "short", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.True(t, IsNotFound(err))
}

func TestMemory_IncrStartsAtOne(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	n, err := c.Incr(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemory_IncrConcurrent(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, _ = c.Incr(ctx, "hot", time.Minute)
		}()
	}
	wg.Wait()

	n, err := c.Incr(ctx, "hot", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines+1), n)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	_, err := c.Incr(ctx, "w", 10*time.Second)
	require.NoError(t, err)

	ttl, err := c.TTL(ctx, "w")
	require.NoError(t, err)
	assert.Greater(t, ttl, 5*time.Second)
	assert.LessOrEqual(t, ttl, 10*time.Second)

	// key inexistente: TTL cero, sin error
	ttl, err = c.TTL(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestNew_DriverSelection(t *testing.T) {
	c, err := New(Config{Driver: "memory", Prefix: "p"})
	require.NoError(t, err)
	assert.NotNil(t, c)

	c, err = New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
