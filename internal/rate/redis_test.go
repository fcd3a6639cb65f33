package rate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("requires REDIS_ADDR")
	}
	ctx := context.Background()
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "rl-test:" + uuid.NewString() + ":"
	l := NewRedisLimiter(client, prefix, 2, time.Minute)
	base := time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return base }

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(1), r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(0), r.Remaining)

	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Equal(t, int64(3), r.CurrentHits)
	assert.Equal(t, 50*time.Second, r.RetryAfter)

	// la ventana no se extiende con cada hit
	key := prefix + "1.2.3.4:" + "1704110400"
	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 50*time.Second)

	r, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	// ventana siguiente: contador nuevo
	l.now = func() time.Time { return base.Add(time.Minute) }
	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, int64(1), r.CurrentHits)

	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			_ = client.Del(context.Background(), keys...).Err()
		}
	})
}

func TestRedisLimiter_BackendDownReturnsError(t *testing.T) {
	client := rdb.NewClient(&rdb.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "", 1, time.Minute)
	assert.Equal(t, "rl:", l.Prefix)

	_, err := l.Allow(context.Background(), "1.2.3.4")
	assert.Error(t, err)
}
