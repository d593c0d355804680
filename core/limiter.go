package core

import (
	"context"
	"log/slog"
	"time"
)

// Policy is a request-count quota over a trailing window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Backend answers whether a key is over quota. Every call records the
// attempt, admitted or not, so hammering past the limit never resets
// the window early.
type Backend interface {
	ShouldBlock(ctx context.Context, key string) (bool, error)
}

// Limiter is the admission check used by request handlers. It composes
// an optional remote backend with a local in-process one: a failing
// remote call degrades to the local evaluation for that single call,
// never to an unconditional admit or reject.
type Limiter struct {
	primary  Backend
	fallback *MemoryBackend
	logger   *slog.Logger
}

// NewLimiter builds a limiter over the given backends. primary may be
// nil, in which case the local backend is used unconditionally.
func NewLimiter(primary Backend, fallback *MemoryBackend) *Limiter {
	return &Limiter{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default(),
	}
}

// ShouldBlock reports whether the request for key must be rejected.
// It never fails; backend errors are absorbed by the fallback.
func (l *Limiter) ShouldBlock(ctx context.Context, key string) bool {
	if l.primary != nil {
		blocked, err := l.primary.ShouldBlock(ctx, key)
		if err == nil {
			return blocked
		}
		l.logger.Warn("remote rate limiter unavailable, using local window", "error", err)
	}
	blocked, _ := l.fallback.ShouldBlock(ctx, key)
	return blocked
}
