package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/servicebooking/config"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "cache:"
	redisEpochKey  = "cache-epoch"
	scanBatch      = 200
)

// ErrCorruptEntry is returned for a cached value that can not be decoded.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// putIfUnchanged sets KEYS[1] only while the epoch in KEYS[2] still equals ARGV[2].
var putIfUnchanged = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current == false then current = '0' end
if current ~= ARGV[2] then return 0 end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// RedisCache is the Store shared between several API processes.
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	now     func() time.Time
	metrics *Metrics
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration, metrics *Metrics) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return NewRedisCacheFromClient(client, ttl, metrics)
}

func NewRedisCacheFromClient(client redis.UniversalClient, ttl time.Duration, metrics *Metrics) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, now: time.Now, metrics: metrics}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.miss(key.Collection)
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	insertedAt, payload, err := decodeEnvelope(data)
	if err != nil {
		_ = c.client.Del(ctx, redisKey(key)).Err()
		return Entry{}, false, err
	}

	age := c.now().Sub(insertedAt)
	if age >= c.ttl {
		c.metrics.miss(key.Collection)
		return Entry{}, false, nil
	}
	c.metrics.hit(key.Collection)
	return Entry{Payload: payload, Age: age}, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key Key, payload []byte) error {
	return c.client.Set(ctx, redisKey(key), encodeEnvelope(c.now(), payload), c.ttl).Err()
}

func (c *RedisCache) PutIfUnchanged(ctx context.Context, key Key, payload []byte, epoch uint64) (bool, error) {
	res, err := putIfUnchanged.Run(ctx, c.client,
		[]string{redisKey(key), redisEpochKey},
		encodeEnvelope(c.now(), payload), strconv.FormatUint(epoch, 10), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (c *RedisCache) Delete(ctx context.Context, key Key) error {
	return c.client.Del(ctx, redisKey(key)).Err()
}

func (c *RedisCache) Epoch(ctx context.Context) (uint64, error) {
	v, err := c.client.Get(ctx, redisEpochKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Invalidate advances the epoch before deleting so that a fill which captured the
// old epoch can not write back after the scan has passed its key.
func (c *RedisCache) Invalidate(ctx context.Context, scopes ...Scope) (int, error) {
	if err := c.client.Incr(ctx, redisEpochKey).Err(); err != nil {
		return 0, fmt.Errorf("advance cache epoch: %w", err)
	}

	removed := 0
	for _, s := range scopes {
		n, err := c.deletePrefix(ctx, redisKeyPrefix+s.prefix())
		removed += n
		if err != nil {
			return removed, fmt.Errorf("invalidate %s: %w", s.prefix(), err)
		}
		c.metrics.invalidated(s.Collection)
	}
	return removed, nil
}

func (c *RedisCache) deletePrefix(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, err
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func redisKey(k Key) string {
	return redisKeyPrefix + k.String()
}

// encodeEnvelope prefixes payload with the insertion time in unix nanoseconds.
func encodeEnvelope(insertedAt time.Time, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(insertedAt.UnixNano()))
	copy(buf[8:], payload)
	return buf
}

func decodeEnvelope(data []byte) (time.Time, []byte, error) {
	if len(data) < 8 {
		return time.Time{}, nil, ErrCorruptEntry
	}
	ns := int64(binary.BigEndian.Uint64(data[:8]))
	return time.Unix(0, ns), data[8:], nil
}

var _ Store = (*RedisCache)(nil)
