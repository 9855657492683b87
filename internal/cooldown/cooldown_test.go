package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5 * time.Minute)
	defer m.Close()

	_, ok, err := m.Last(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	require.NoError(t, m.Record(ctx, "client-a", at))

	got, ok, err := m.Last(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got)

	_, ok, _ = m.Last(ctx, "client-b")
	assert.False(t, ok)
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(5 * time.Minute)
	defer m.Close()

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	_ = m.Record(ctx, "old", at)
	_ = m.Record(ctx, "fresh", at.Add(4*time.Minute))

	m.sweep(at.Add(6 * time.Minute))

	_, ok, _ := m.Last(ctx, "old")
	assert.False(t, ok, "expired entry kept")
	_, ok, _ = m.Last(ctx, "fresh")
	assert.True(t, ok, "live entry dropped")
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedis(rdb, 5*time.Minute)

	_, ok, err := r.Last(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.UnixMilli(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC).UnixMilli())
	require.NoError(t, r.Record(ctx, "client-a", at))

	got, ok, err := r.Last(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	assert.Equal(t, 5*time.Minute, mr.TTL(redisPrefix+"client-a"))

	mr.FastForward(6 * time.Minute)
	_, ok, err = r.Last(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire with the window")
}

func TestRedisGarbageValue(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	require.NoError(t, mr.Set(redisPrefix+"x", "not-a-number"))
	_, ok, err := NewRedis(rdb, time.Minute).Last(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}
