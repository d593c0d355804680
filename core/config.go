package core

import (
	"github.com/redis/go-redis/v9"
)

// LimiterOptions selects and parameterizes the limiter backends.
// Presence of RedisAddr switches the primary backend to the shared
// redis counter; the in-process window always exists as the fallback.
// The selection happens once, at construction, not per request.
type LimiterOptions struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Policy drives the local window. RemotePolicy drives the shared
	// counter and defaults to Policy, so a failover does not change
	// what is enforced unless the two are deliberately configured
	// apart.
	Policy       Policy
	RemotePolicy Policy

	// MaxEntries overrides the local store's entry cap. Zero means
	// DefaultMaxEntries.
	MaxEntries int
}

func NewLimiterWithOptions(opts LimiterOptions) *Limiter {
	local := NewMemoryBackend(opts.Policy)
	if opts.MaxEntries > 0 {
		local.maxEntries = opts.MaxEntries
	}

	var primary Backend
	if opts.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		remote := opts.RemotePolicy
		if remote.MaxRequests == 0 {
			remote = opts.Policy
		}
		primary = NewRedisBackend(client, opts.RedisKeyPrefix, remote)
	}

	return NewLimiter(primary, local)
}
