package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Redis is a fixed-window counter shared by every replica.
type Redis struct {
	client redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func NewRedis(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Redis {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "corebank:login"
	}
	if window < time.Second {
		window = time.Second
	}
	return &Redis{client: client, prefix: prefix, limit: int64(limit), window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	count, err := fixedWindowScript.Run(ctx, r.client,
		[]string{r.prefix + ":" + key}, r.window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("Allow: %w", err)
	}
	return count <= r.limit, nil
}

// NewRedisClient parses url (redis://...) and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: ping: %w", err)
	}
	return client, nil
}
