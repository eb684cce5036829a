package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

func TestFixedWindow_AllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	l := NewFixedWindow(cache.NewMemory(""), "rl", 5, time.Minute)

	for i := 1; i <= 5; i++ {
		res, err := l.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d dentro del límite", i)
		assert.Equal(t, int64(5-i), res.Remaining)
		assert.Equal(t, int64(i), res.CurrentHits)
	}

	// hit N+1: denegado con RetryAfter
	res, err := l.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewFixedWindow(cache.NewMemory(""), "rl", 1, time.Minute)

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// otra key arranca su propia ventana
	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestFixedWindow_PrefixesAreIndependent(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory("")

	// dos limiters sobre el mismo backend con prefijos distintos
	// mantienen presupuestos separados para la misma key
	start := NewFixedWindow(mem, "rl:start", 1, time.Minute)
	callback := NewFixedWindow(mem, "rl:cb", 1, time.Minute)

	res, err := start.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = callback.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)

	res, err = start.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestFixedWindow_WindowReset(t *testing.T) {
	ctx := context.Background()
	l := NewFixedWindow(cache.NewMemory(""), "rl", 1, 30*time.Millisecond)

	res, err := l.Allow(ctx, "x")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.Allow(ctx, "x")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(60 * time.Millisecond)

	// ventana vencida: contador nuevo
	res, err = l.Allow(ctx, "x")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestNoop_AlwaysAllows(t *testing.T) {
	l := Noop()
	for i := 0; i < 100; i++ {
		res, err := l.Allow(context.Background(), "anyone")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestClientKey_HashesIP(t *testing.T) {
	k := ClientKey("203.0.113.9")
	assert.Len(t, k, 64)
	assert.NotContains(t, k, "203.0.113.9")
	// determinístico
	assert.Equal(t, k, ClientKey("203.0.113.9"))
	assert.NotEqual(t, k, ClientKey("203.0.113.10"))
}
