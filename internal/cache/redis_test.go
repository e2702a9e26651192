package cache

import (
	"testing"
	"time"

	"github.com/Domenick1991/servicebooking/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	insertedAt := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

	data := encodeEnvelope(insertedAt, []byte(`{"total":2}`))
	got, payload, err := decodeEnvelope(data)
	require.NoError(t, err)

	assert.True(t, insertedAt.Equal(got))
	assert.Equal(t, []byte(`{"total":2}`), payload)
}

func TestEnvelope_Corrupt(t *testing.T) {
	_, _, err := decodeEnvelope([]byte("short"))
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestRedisKeyAndScopePrefixAgree(t *testing.T) {
	k := Key{Collection: CollectionNotifications, Owner: "u-1", Page: 1, Limit: 20}
	s := Scope{Collection: CollectionNotifications, Owner: "u-1"}

	assert.Equal(t, "cache:notifications:u-1:limit=20&page=1", redisKey(k))
	assert.Contains(t, redisKey(k), redisKeyPrefix+s.prefix())
	assert.Equal(t, "notifications:", Scope{Collection: CollectionNotifications}.prefix())
}

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute, nil)
	require.NotNil(t, c)
	assert.Equal(t, time.Minute, c.ttl)
	assert.NoError(t, c.Close())
}
