package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	connectTimeout = 5 * time.Second
	ioTimeout      = 3 * time.Second
	minBucketTTL   = 60 // seconds
)

// Config describes the Redis server backing the rate limiter.
type Config struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
}

func (c Config) addr() string { return net.JoinHostPort(c.Host, c.Port) }

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.addr(),
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		DialTimeout:  connectTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolTimeout:  ioTimeout + time.Second,
	}
}

// Client is a go-redis client that also keeps token buckets.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// takeToken refills the bucket at KEYS[1] for the time since its last use,
// then spends one token if it can. ARGV: rate per second, capacity, now in
// seconds, ttl in seconds. Returns 1 when a token was spent.
var takeToken = redis.NewScript(`
local rate, capacity, now, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local state = redis.call('HMGET', KEYS[1], 'ts', 'tokens')
local ts = tonumber(state[1]) or now
local level = tonumber(state[2]) or capacity

level = math.min(capacity, level + math.max(0, now - ts) * rate)
local granted = 0
if level >= 1 then
	level = level - 1
	granted = 1
end

redis.call('HSET', KEYS[1], 'ts', tostring(now), 'tokens', tostring(level))
redis.call('EXPIRE', KEYS[1], ttl)
return granted
`)

// NewClient dials Redis and fails unless the server answers a PING.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.addr(), err)
	}

	log.Info("redis ready", zap.String("addr", cfg.addr()), zap.Int("db", cfg.DB))
	return Wrap(rdb, log), nil
}

// Wrap adapts an existing go-redis client.
func Wrap(rdb *redis.Client, log *zap.Logger) *Client {
	return &Client{Client: rdb, log: log}
}

// Allow takes one token from the bucket stored at key. The bucket refills at
// rate tokens per second and holds at most burst tokens.
func (c *Client) Allow(ctx context.Context, key string, rate float64, burst int) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6

	granted, err := takeToken.Run(ctx, c.Client, []string{key}, rate, burst, now, bucketTTL(rate, burst)).Int64()
	if err != nil {
		return false, fmt.Errorf("token bucket %s: %w", key, err)
	}
	return granted == 1, nil
}

// bucketTTL keeps a bucket long enough to refill completely, at least a minute.
func bucketTTL(rate float64, burst int) int {
	if rate <= 0 {
		return minBucketTTL
	}
	return max(minBucketTTL, int(float64(burst)/rate)+1)
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	c.log.Debug("closing redis client")
	return c.Client.Close()
}
