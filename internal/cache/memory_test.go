package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func bookingsKey(owner string, page int) Key {
	return Key{Collection: CollectionBookings, Owner: owner, Page: page, Limit: 10}
}

func TestMemoryCache_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(5*time.Minute, WithClock(clock.Now))
	k := bookingsKey("c1", 1)

	require.NoError(t, c.Put(ctx, k, []byte(`{"total":1}`)))

	entry, ok, err := c.Get(ctx, k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"total":1}`), entry.Payload)
	assert.Equal(t, time.Duration(0), entry.Age)

	clock.Advance(5*time.Minute - time.Second)
	entry, ok, _ = c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, 5*time.Minute-time.Second, entry.Age)

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, k)
	assert.False(t, ok, "entry aged exactly TTL must not be served")
	assert.Equal(t, 0, c.Len(), "stale entry is evicted on access")
}

func TestMemoryCache_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(time.Minute, WithClock(clock.Now))
	k := bookingsKey("c1", 1)

	require.NoError(t, c.Put(ctx, k, []byte("old")))
	clock.Advance(50 * time.Second)
	require.NoError(t, c.Put(ctx, k, []byte("new")))
	clock.Advance(50 * time.Second)

	entry, ok, _ := c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), entry.Payload)
	assert.Equal(t, 50*time.Second, entry.Age)
}

func TestMemoryCache_PayloadIsCopied(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	k := bookingsKey("c1", 1)

	payload := []byte("abc")
	require.NoError(t, c.Put(ctx, k, payload))
	payload[0] = 'x'

	entry, ok, _ := c.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), entry.Payload)
}

func TestMemoryCache_InvalidateByOwner(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	for page := 1; page <= 3; page++ {
		require.NoError(t, c.Put(ctx, bookingsKey("c1", page), []byte("c1")))
		require.NoError(t, c.Put(ctx, bookingsKey("c2", page), []byte("c2")))
	}
	notif := Key{Collection: CollectionNotifications, Owner: "c1"}
	require.NoError(t, c.Put(ctx, notif, []byte("n")))

	n, err := c.Invalidate(ctx, OwnedBy(CollectionBookings, "c1")...)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for page := 1; page <= 3; page++ {
		_, ok, _ := c.Get(ctx, bookingsKey("c1", page))
		assert.False(t, ok)
		_, ok, _ = c.Get(ctx, bookingsKey("c2", page))
		assert.True(t, ok)
	}
	_, ok, _ := c.Get(ctx, notif)
	assert.True(t, ok, "other collections of the same owner survive")
}

func TestMemoryCache_InvalidateFuncAndEpoch(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Put(ctx, bookingsKey("c1", 1), []byte("x")))

	before, _ := c.Epoch(ctx)
	removed := c.InvalidateFunc(func(k Key) bool { return k.Page == 1 })
	after, _ := c.Epoch(ctx)

	assert.Equal(t, 1, removed)
	assert.Equal(t, before+1, after)

	// An empty invalidation still advances the epoch: a fill may be in flight for a key not yet stored.
	c.InvalidateFunc(func(Key) bool { return false })
	last, _ := c.Epoch(ctx)
	assert.Equal(t, after+1, last)
}

func TestMemoryCache_PutIfUnchanged(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	k := bookingsKey("c1", 1)

	epoch, _ := c.Epoch(ctx)
	_, err := c.Invalidate(ctx, OwnedBy(CollectionBookings, "c1")...)
	require.NoError(t, err)

	stored, err := c.PutIfUnchanged(ctx, k, []byte("stale"), epoch)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, _ := c.Get(ctx, k)
	assert.False(t, ok)

	epoch, _ = c.Epoch(ctx)
	stored, err = c.PutIfUnchanged(ctx, k, []byte("fresh"), epoch)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestMemoryCache_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache(time.Minute, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, bookingsKey("c1", 1), []byte("old")))
	clock.Advance(40 * time.Second)
	require.NoError(t, c.Put(ctx, bookingsKey("c1", 2), []byte("young")))
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_RunStopsWithContext(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			owner := fmt.Sprintf("u%d", w%3)
			for i := 0; i < 200; i++ {
				k := bookingsKey(owner, i%5)
				payload := []byte(fmt.Sprintf("%s-%d", owner, i))
				_ = c.Put(ctx, k, payload)
				if entry, ok, _ := c.Get(ctx, k); ok {
					assert.Contains(t, string(entry.Payload), owner+"-")
				}
				if i%17 == 0 {
					_, _ = c.Invalidate(ctx, OwnedBy(CollectionBookings, owner)...)
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestMemoryCache_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewMemoryCache(time.Minute, WithMetrics(m))
	k := bookingsKey("c1", 1)

	_, _, _ = c.Get(ctx, k)
	_ = c.Put(ctx, k, []byte("x"))
	_, _, _ = c.Get(ctx, k)
	_, _ = c.Invalidate(ctx, OwnedBy(CollectionBookings, "c1")...)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hits.WithLabelValues(CollectionBookings)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues(CollectionBookings)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidations.WithLabelValues(CollectionBookings)))
}
