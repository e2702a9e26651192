package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader reads through a Store. Cache failures are logged and treated as misses.
type Loader struct {
	store   Store
	group   singleflight.Group
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

type LoaderOption func(*Loader)

// WithLoaderClock replaces time.Now when checking Expiring values, for tests.
func WithLoaderClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.now = now
	}
}

func NewLoader(store Store, logger *zap.Logger, metrics *Metrics, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, logger: logger, metrics: metrics, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Expiring is implemented by cached values that go stale at a known instant before
// the TTL runs out. A zero CacheUntil means no such instant.
type Expiring interface {
	CacheUntil() time.Time
}

func (l *Loader) Store() Store {
	return l.store
}

// Fetch returns the cached value for key or calls load and caches its result.
// Concurrent misses for the same key and epoch share one load.
func Fetch[T any](ctx context.Context, l *Loader, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := lookup[T](ctx, l, key); ok {
		return v, nil
	}

	epoch, err := l.store.Epoch(ctx)
	if err != nil {
		l.logger.Warn("cache epoch unavailable, bypassing cache",
			zap.String("key", key.String()), zap.Error(err))
		return load(ctx)
	}

	flight := key.String() + "#" + strconv.FormatUint(epoch, 10)
	v, err, _ := l.group.Do(flight, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		l.fill(ctx, key, value, epoch)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func lookup[T any](ctx context.Context, l *Loader, key Key) (T, bool) {
	var v T
	entry, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("cache read failed", zap.String("key", key.String()), zap.Error(err))
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(entry.Payload, &v); err != nil {
		l.logger.Warn("dropping undecodable cache entry", zap.String("key", key.String()), zap.Error(err))
		if delErr := l.store.Delete(ctx, key); delErr != nil {
			l.logger.Warn("cache delete failed", zap.String("key", key.String()), zap.Error(delErr))
		}
		var zero T
		return zero, false
	}
	if e, ok := any(v).(Expiring); ok {
		if until := e.CacheUntil(); !until.IsZero() && !l.now().Before(until) {
			if err := l.store.Delete(ctx, key); err != nil {
				l.logger.Warn("cache delete failed", zap.String("key", key.String()), zap.Error(err))
			}
			var zero T
			return zero, false
		}
	}
	return v, true
}

func (l *Loader) fill(ctx context.Context, key Key, value any, epoch uint64) {
	payload, err := json.Marshal(value)
	if err != nil {
		l.logger.Warn("cache encode failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	stored, err := l.store.PutIfUnchanged(ctx, key, payload, epoch)
	if err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key.String()), zap.Error(err))
		return
	}
	if !stored {
		l.metrics.fillRejected(key.Collection)
	}
}

// Invalidate drops every cached read in scopes. Failures are logged; the entries
// then expire with their TTL.
func (l *Loader) Invalidate(ctx context.Context, scopes ...Scope) {
	if len(scopes) == 0 {
		return
	}
	if _, err := l.store.Invalidate(ctx, scopes...); err != nil {
		l.logger.Error("cache invalidation failed", zap.Any("scopes", scopes), zap.Error(err))
	}
}
