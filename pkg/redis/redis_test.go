package redis

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb, zaptest.NewLogger(t)), mr
}

func TestClient_Allow_Burst(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	// A negligible refill rate makes the burst the only budget.
	for i := 0; i < 3; i++ {
		ok, err := client.Allow(ctx, "rl:test", 0.0001, 3)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := client.Allow(ctx, "rl:test", 0.0001, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Allow_SeparateKeys(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	ok, err := client.Allow(ctx, "rl:a", 0.0001, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Allow(ctx, "rl:b", 0.0001, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Allow(ctx, "rl:a", 0.0001, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Allow_SetsExpiry(t *testing.T) {
	client, mr := setupTestClient(t)

	_, err := client.Allow(context.Background(), "rl:ttl", 1, 5)
	require.NoError(t, err)

	assert.True(t, mr.Exists("rl:ttl"))
	assert.Positive(t, mr.TTL("rl:ttl"))
}

func TestClient_Allow_RedisDown(t *testing.T) {
	client, mr := setupTestClient(t)
	mr.Close()

	_, err := client.Allow(context.Background(), "rl:down", 1, 1)
	assert.Error(t, err)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 60, bucketTTL(10, 20))
	assert.Equal(t, 101, bucketTTL(1, 100))
	assert.Equal(t, 60, bucketTTL(0, 5))
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	client, err := NewClient(Config{Host: host, Port: port}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	_, err = NewClient(Config{Host: host, Port: port, MaxRetries: -1}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unreachable")
}
