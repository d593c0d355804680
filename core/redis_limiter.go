package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBackend tracks attempts in a sorted set per key, scored by
// timestamp, so the window slides instead of resetting at fixed
// boundaries. Intended for multi-instance deployments where the counter
// must be shared.
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
	policy    Policy
	now       func() time.Time
}

func NewRedisBackend(client *redis.Client, keyPrefix string, policy Policy) *RedisBackend {
	if keyPrefix == "" {
		keyPrefix = "relay-rate:"
	}
	return &RedisBackend{
		client:    client,
		keyPrefix: keyPrefix,
		policy:    policy,
		now:       time.Now,
	}
}

func (b *RedisBackend) key(k string) string {
	return b.keyPrefix + k
}

// ShouldBlock records this attempt and reports whether the key has more
// than MaxRequests attempts inside the trailing window. Any transport
// or protocol error is returned to the caller; the Limiter absorbs it
// by re-evaluating on the local backend.
func (b *RedisBackend) ShouldBlock(ctx context.Context, key string) (bool, error) {
	now := b.now()
	cutoff := now.Add(-b.policy.Window)

	p := b.client.Pipeline()
	remove := p.ZRemRangeByScore(ctx, b.key(key), "0", strconv.FormatInt(cutoff.UnixMilli(), 10))
	add := p.ZAdd(ctx, b.key(key), redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	count := p.ZCount(ctx, b.key(key), "-inf", "+inf")
	p.Expire(ctx, b.key(key), b.policy.Window)

	if _, err := p.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate pipeline for key %s: %w", key, err)
	}
	if err := remove.Err(); err != nil {
		return false, fmt.Errorf("trim window for key %s: %w", key, err)
	}
	if err := add.Err(); err != nil {
		return false, fmt.Errorf("record attempt for key %s: %w", key, err)
	}

	total, err := count.Result()
	if err != nil {
		return false, fmt.Errorf("count attempts for key %s: %w", key, err)
	}
	return total > int64(b.policy.MaxRequests), nil
}
