package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// Client wraps Redis operations using rueidis.
type Client struct {
	redis rueidis.Client
}

// NewClient creates a new Redis client.
func NewClient(ctx context.Context, url string) (*Client, error) {
	// Parse Redis URL (redis://localhost:6379)
	opts, err := rueidis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}

	// Verify connection
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{redis: client}, nil
}

// Close closes the Redis client.
func (c *Client) Close() {
	c.redis.Close()
}

// Ping checks if Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Do(ctx, c.redis.B().Ping().Build()).Error()
}

// --- Quote results ---

// QuoteKey derives a stable cache key from the request parts.
func QuoteKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SetQuote caches a rendered quote response with TTL.
func (c *Client) SetQuote(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	redisKey := fmt.Sprintf("quote:%s", key)
	err := c.redis.Do(ctx,
		c.redis.B().Set().Key(redisKey).Value(rueidis.BinaryString(payload)).Ex(ttl).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("set quote: %w", err)
	}
	return nil
}

// GetQuote retrieves a cached quote response.
func (c *Client) GetQuote(ctx context.Context, key string) ([]byte, error) {
	redisKey := fmt.Sprintf("quote:%s", key)
	result, err := c.redis.Do(ctx, c.redis.B().Get().Key(redisKey).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return result, nil
}

// --- Rate Limiting ---

// CheckRateLimit checks if a client has exceeded their rate limit.
// Returns true if request is allowed, false if rate limited.
func (c *Client) CheckRateLimit(ctx context.Context, clientID string, limitPerMinute int) (bool, error) {
	key := fmt.Sprintf("rate_limit:%s", clientID)
	now := time.Now().Unix()
	windowStart := now - 60 // 1 minute window

	// Use a Lua script for atomic rate limiting
	script := `
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])

		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

		local count = redis.call('ZCARD', key)

		if count < limit then
			redis.call('ZADD', key, now, now .. ':' .. math.random())
			redis.call('EXPIRE', key, 60)
			return 1
		else
			return 0
		end
	`

	result, err := c.redis.Do(ctx,
		c.redis.B().Eval().Script(script).Numkeys(1).Key(key).Arg(
			fmt.Sprintf("%d", now),
			fmt.Sprintf("%d", windowStart),
			fmt.Sprintf("%d", limitPerMinute),
		).Build(),
	).ToInt64()

	if err != nil {
		return false, fmt.Errorf("check rate limit: %w", err)
	}

	return result == 1, nil
}
