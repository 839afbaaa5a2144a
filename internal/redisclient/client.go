package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/adjust_stock.lua
var adjustStockScript string

type Client struct {
	rdb          *redis.Client
	adjustScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		adjustScript: redis.NewScript(adjustStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(title string) string {
	return fmt.Sprintf("stock:%s", title)
}

// SetStock caches the stock count for an item
func (c *Client) SetStock(ctx context.Context, title string, stock int) error {
	return c.rdb.Set(ctx, stockKey(title), stock, 0).Err()
}

// GetStock retrieves a cached stock count. The bool is false on a cache
// miss.
func (c *Client) GetStock(ctx context.Context, title string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, stockKey(title)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	stock, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock cache for %q: %w", title, err)
	}
	return stock, true, nil
}

// AdjustStock atomically adjusts a cached stock count using the Lua script.
// Returns the updated count, or -1 when the key was not cached.
func (c *Client) AdjustStock(ctx context.Context, title string, delta int) (int, error) {
	result, err := c.adjustScript.Run(ctx, c.rdb, []string{stockKey(title)}, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("adjust stock script failed: %w", err)
	}

	updated, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}
	return int(updated), nil
}

// EvictStock drops the cached stock count for an item
func (c *Client) EvictStock(ctx context.Context, title string) error {
	return c.rdb.Del(ctx, stockKey(title)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
