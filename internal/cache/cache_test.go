package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test"), mr
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "escalation:period:never", PeriodKey(0))
	assert.Equal(t, "escalation:period:42", PeriodKey(42))
}

func TestEscalationTTL(t *testing.T) {
	assert.Equal(t, 23*time.Hour, EscalationTTL(24*time.Hour))
	assert.Equal(t, 71*time.Hour, EscalationTTL(72*time.Hour))
	assert.Equal(t, time.Hour, EscalationTTL(30*time.Minute))
}

func TestTryMarkEscalationOncePerPeriod(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := PeriodKey(7)

	assert.True(t, c.TryMarkEscalation(ctx, key, 23*time.Hour))
	assert.False(t, c.TryMarkEscalation(ctx, key, 23*time.Hour))
	assert.True(t, c.TryMarkEscalation(ctx, PeriodKey(8), 23*time.Hour), "a new check-in starts a new period")

	ttl := mr.TTL("test:" + key)
	assert.Equal(t, 23*time.Hour, ttl)

	mr.FastForward(23 * time.Hour)
	assert.True(t, c.TryMarkEscalation(ctx, key, 23*time.Hour), "key expires before the next fire")
}

func TestReleaseEscalationAllowsRetry(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := PeriodKey(0)

	require.True(t, c.TryMarkEscalation(ctx, key, time.Hour))
	c.ReleaseEscalation(ctx, key)
	assert.True(t, c.TryMarkEscalation(ctx, key, time.Hour))
}

func TestEscalationFailsOpenWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	ctx := context.Background()
	assert.True(t, c.TryMarkEscalation(ctx, PeriodKey(1), time.Hour))
	assert.True(t, c.TryMarkEscalation(ctx, PeriodKey(1), time.Hour))
	c.ReleaseEscalation(ctx, PeriodKey(1))
}

func TestNilClientAllowsEverything(t *testing.T) {
	c := New(nil, "")
	ctx := context.Background()

	assert.True(t, c.TryMarkEscalation(ctx, PeriodKey(1), time.Hour))
	assert.True(t, c.TryLock(ctx, "reminder", time.Minute))
	ok, err := c.TryMarkMessageProcessing(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Unlock(ctx, "reminder"))
}

func TestMessageProcessingLifecycle(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.TryMarkMessageProcessing(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryMarkMessageProcessing(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.UnmarkMessageProcessing(ctx, "m1"))
	ok, err = c.TryMarkMessageProcessing(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.MarkMessageProcessed(ctx, "m1"))
	v, err := mr.Get("test:msg:processed:m1")
	require.NoError(t, err)
	assert.Equal(t, "completed", v)
	assert.Equal(t, processedTTL, mr.TTL("test:msg:processed:m1"))
}

func TestLock(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	assert.True(t, c.TryLock(ctx, "reminder", time.Minute))
	assert.False(t, c.TryLock(ctx, "reminder", time.Minute))
	require.NoError(t, c.Unlock(ctx, "reminder"))
	assert.True(t, c.TryLock(ctx, "reminder", time.Minute))
}
