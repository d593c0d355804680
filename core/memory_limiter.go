package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultMaxEntries caps how many keys the in-process window store may
// hold before the oldest half is evicted.
const DefaultMaxEntries = 10000

type windowEntry struct {
	count       int
	windowStart time.Time
}

// MemoryBackend is the in-process fixed-window counter. Expired entries
// are swept on every call (no background timer) and the store is kept
// bounded by evicting the oldest-window half under capacity pressure,
// so an unbounded key domain cannot grow memory without bound.
type MemoryBackend struct {
	mu         sync.Mutex
	entries    map[string]*windowEntry
	policy     Policy
	maxEntries int
	now        func() time.Time
}

func NewMemoryBackend(policy Policy) *MemoryBackend {
	return &MemoryBackend{
		entries:    make(map[string]*windowEntry),
		policy:     policy,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
}

// ShouldBlock records this attempt against key's current window and
// reports whether the key already had MaxRequests or more attempts in
// it. A forgotten key (swept or evicted) simply starts a fresh window.
// It never returns an error.
func (b *MemoryBackend) ShouldBlock(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	for k, e := range b.entries {
		if now.Sub(e.windowStart) > b.policy.Window {
			delete(b.entries, k)
		}
	}

	if len(b.entries) > b.maxEntries {
		b.evictOldestHalf()
	}

	e, ok := b.entries[key]
	if !ok || now.Sub(e.windowStart) > b.policy.Window {
		b.entries[key] = &windowEntry{count: 1, windowStart: now}
		return false, nil
	}

	// Keep counting past the limit so over-quota pressure stays visible.
	e.count++
	return e.count > b.policy.MaxRequests, nil
}

// evictOldestHalf drops the half of the store with the oldest windows,
// preferring to keep the most recently active keys. Caller holds b.mu.
func (b *MemoryBackend) evictOldestHalf() {
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return b.entries[keys[i]].windowStart.Before(b.entries[keys[j]].windowStart)
	})
	for _, k := range keys[:len(keys)/2] {
		delete(b.entries, k)
	}
}

func (b *MemoryBackend) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
