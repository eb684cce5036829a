package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

func TestStateStore_IssueVerify(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), time.Minute)

	token, err := s.Issue(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(token), 43) // 32 bytes base64url sin padding

	require.NoError(t, s.Verify(ctx, token))
}

func TestStateStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), time.Minute)

	token, err := s.Issue(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Verify(ctx, token))
	assert.ErrorIs(t, s.Verify(ctx, token), ErrStateInvalid)
}

func TestStateStore_UnknownToken(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), time.Minute)

	assert.ErrorIs(t, s.Verify(ctx, "never-issued"), ErrStateInvalid)
	assert.ErrorIs(t, s.Verify(ctx, ""), ErrStateInvalid)
}

func TestStateStore_Expired(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), 30*time.Millisecond)

	token, err := s.Issue(ctx)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	err = s.Verify(ctx, token)
	assert.Error(t, err)
	// según el timing de la purga del cache puede salir como invalid
	// (entrada ya vencida) o expired (chequeo de edad)
	assert.True(t, err == ErrStateInvalid || err == ErrStateExpired)
}

func TestStateStore_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewStateStore(cache.NewMemory(""), time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := s.Issue(ctx)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
