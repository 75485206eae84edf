package watermark

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, key string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, key)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStoreMissingKeyReadsEpoch(t *testing.T) {
	s, _ := newRedisStore(t, "")

	ts, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Epoch, ts)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := newRedisStore(t, "etl:test")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "2024-05-01 10:05:00"))

	stored, err := mr.Get("etl:test")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 10:05:00", stored)

	ts, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01 10:05:00", ts)
}

func TestRedisStoreWriteValidatesFirst(t *testing.T) {
	s, mr := newRedisStore(t, "")
	require.NoError(t, mr.Set(DefaultKey, "2024-01-01 00:00:00"))

	assert.Error(t, s.Write(context.Background(), "2024-05-01T10:05:00Z"))

	stored, err := mr.Get(DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 00:00:00", stored)
}

func TestRedisStoreServerError(t *testing.T) {
	s, mr := newRedisStore(t, "")
	mr.SetError("ERR backend unavailable")

	_, err := s.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get "+DefaultKey)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("custom", "2024-03-03 03:03:03"))

	s, err := Open(context.Background(), Options{Backend: "redis", RedisAddr: mr.Addr(), Key: "custom"})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &RedisStore{}, s)

	ts, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03 03:03:03", ts)
}
