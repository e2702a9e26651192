package cache

import (
	"context"
	"time"
)

// Entry is a cached payload together with its age at read time.
type Entry struct {
	Payload []byte
	Age     time.Duration
}

// Store is a TTL-bounded cache shared by all request goroutines.
//
// Epoch advances on every invalidation. A reader that captured the epoch before
// loading from the database stores its result with PutIfUnchanged, which refuses
// the write when an invalidation happened in between.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, payload []byte) error
	PutIfUnchanged(ctx context.Context, key Key, payload []byte, epoch uint64) (bool, error)
	Delete(ctx context.Context, key Key) error
	Epoch(ctx context.Context) (uint64, error)
	Invalidate(ctx context.Context, scopes ...Scope) (int, error)
}
