package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key        Key
	payload    []byte
	insertedAt time.Time
}

// MemoryCache is the in-process Store. Stale entries are evicted lazily on access
// and by Run's periodic sweep.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	epoch   uint64
	ttl     time.Duration
	now     func() time.Time
	metrics *Metrics
}

type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func WithMetrics(m *Metrics) MemoryOption {
	return func(c *MemoryCache) {
		c.metrics = m
	}
}

func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key Key) (Entry, bool, error) {
	id := key.String()

	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		c.metrics.miss(key.Collection)
		return Entry{}, false, nil
	}

	age := c.now().Sub(e.insertedAt)
	if age >= c.ttl {
		c.mu.Lock()
		// Only drop the entry we looked at; a concurrent Put may have replaced it.
		if cur, ok := c.entries[id]; ok && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		c.metrics.miss(key.Collection)
		return Entry{}, false, nil
	}

	c.metrics.hit(key.Collection)
	return Entry{Payload: e.payload, Age: age}, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key Key, payload []byte) error {
	c.mu.Lock()
	c.store(key, payload)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) PutIfUnchanged(_ context.Context, key Key, payload []byte, epoch uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false, nil
	}
	c.store(key, payload)
	return true, nil
}

// store copies payload so callers can not mutate a cached value. Caller holds mu.
func (c *MemoryCache) store(key Key, payload []byte) {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.entries[key.String()] = memoryEntry{key: key, payload: cp, insertedAt: c.now()}
}

func (c *MemoryCache) Delete(_ context.Context, key Key) error {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Epoch(context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch, nil
}

func (c *MemoryCache) Invalidate(_ context.Context, scopes ...Scope) (int, error) {
	n := c.InvalidateFunc(func(k Key) bool {
		for _, s := range scopes {
			if s.Matches(k) {
				return true
			}
		}
		return false
	})
	for _, s := range scopes {
		c.metrics.invalidated(s.Collection)
	}
	return n, nil
}

// InvalidateFunc removes every entry whose key satisfies match and advances the epoch.
func (c *MemoryCache) InvalidateFunc(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	removed := 0
	for id, e := range c.entries {
		if match(e.key) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Sweep drops every expired entry and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Run sweeps expired entries every interval until ctx is done.
func (c *MemoryCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

var _ Store = (*MemoryCache)(nil)
