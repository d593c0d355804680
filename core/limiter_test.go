package core

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

type failingBackend struct {
	err error
}

func (f *failingBackend) ShouldBlock(context.Context, string) (bool, error) {
	return false, f.err
}

type fixedBackend struct {
	blocked bool
}

func (f *fixedBackend) ShouldBlock(context.Context, string) (bool, error) {
	return f.blocked, nil
}

func TestLimiterUsesPrimaryWhenHealthy(t *testing.T) {
	local := NewMemoryBackend(Policy{MaxRequests: 100, Window: time.Minute})
	l := NewLimiter(&fixedBackend{blocked: true}, local)

	assert.True(t, l.ShouldBlock(context.Background(), "U1"))
	// The local window was never consulted.
	assert.Equal(t, 0, local.size())
}

func TestLimiterFallsBackOnPrimaryError(t *testing.T) {
	policy := Policy{MaxRequests: 3, Window: time.Minute}
	l := NewLimiter(&failingBackend{err: errors.New("connection refused")}, NewMemoryBackend(policy))
	reference := NewMemoryBackend(policy)
	ctx := context.Background()

	// With the remote failing on every call, the observed sequence must
	// match a local-only limiter under the same policy.
	for i := 0; i < 6; i++ {
		want, err := reference.ShouldBlock(ctx, "U1")
		require.NoError(t, err)
		assert.Equal(t, want, l.ShouldBlock(ctx, "U1"), "call %d", i+1)
	}
}

func TestLimiterWithoutPrimary(t *testing.T) {
	l := NewLimiter(nil, NewMemoryBackend(Policy{MaxRequests: 2, Window: time.Minute}))
	ctx := context.Background()

	assert.False(t, l.ShouldBlock(ctx, "U1"))
	assert.False(t, l.ShouldBlock(ctx, "U1"))
	assert.True(t, l.ShouldBlock(ctx, "U1"))
}

func TestLimiterFallsBackWhenRedisUnreachable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	server.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	policy := Policy{MaxRequests: 2, Window: time.Minute}
	l := NewLimiter(NewRedisBackend(client, "", policy), NewMemoryBackend(policy))
	ctx := context.Background()

	assert.False(t, l.ShouldBlock(ctx, "U1"))
	assert.False(t, l.ShouldBlock(ctx, "U1"))
	assert.True(t, l.ShouldBlock(ctx, "U1"))
}
