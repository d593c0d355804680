package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackendShouldBlock(t *testing.T) {
	tt := []struct {
		desc        string
		runs        int
		policy      Policy
		timeAdvance time.Duration
		want        bool
	}{
		{
			desc:   "admits under limit",
			runs:   5,
			policy: Policy{MaxRequests: 10, Window: time.Minute},
			want:   false,
		},
		{
			desc:   "blocks over limit",
			runs:   11,
			policy: Policy{MaxRequests: 10, Window: time.Minute},
			want:   true,
		},
		{
			desc:        "old attempts slide out of the window",
			runs:        11,
			policy:      Policy{MaxRequests: 10, Window: time.Minute},
			timeAdvance: 20 * time.Second,
			want:        false,
		},
	}

	for _, ts := range tt {
		t.Run(ts.desc, func(t *testing.T) {
			server, err := miniredis.Run()
			require.NoError(t, err)
			defer server.Close()

			client := redis.NewClient(&redis.Options{Addr: server.Addr()})
			defer client.Close()

			now := time.Date(2024, time.June, 23, 10, 15, 30, 0, time.UTC)
			b := NewRedisBackend(client, "test-rate:", ts.policy)
			b.now = func() time.Time { return now }

			var last bool
			for i := 0; i < ts.runs; i++ {
				last, err = b.ShouldBlock(context.Background(), "some-user")
				require.NoError(t, err)
				if ts.timeAdvance != 0 {
					server.FastForward(ts.timeAdvance)
					now = now.Add(ts.timeAdvance)
				}
			}

			assert.Equal(t, ts.want, last)
		})
	}
}

func TestRedisBackendKeyIsolation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	b := NewRedisBackend(client, "test-rate:", Policy{MaxRequests: 2, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.ShouldBlock(ctx, "U1")
		require.NoError(t, err)
	}
	blocked, err := b.ShouldBlock(ctx, "U1")
	require.NoError(t, err)
	require.True(t, blocked)

	blocked, err = b.ShouldBlock(ctx, "U2")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestRedisBackendReturnsTransportErrors(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	server.Close()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	b := NewRedisBackend(client, "", Policy{MaxRequests: 10, Window: time.Minute})
	_, err = b.ShouldBlock(context.Background(), "U1")
	assert.Error(t, err)
}
