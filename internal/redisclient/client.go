package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client
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
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireCheckoutLock takes the per-user checkout lock. It returns a
// release token on success and ok=false when another checkout for the
// same user already holds the lock.
func (c *Client) AcquireCheckoutLock(ctx context.Context, userID int64, ttl time.Duration) (token string, ok bool, err error) {
	key := checkoutLockKey(userID)
	token = fmt.Sprintf("%d", time.Now().UnixNano())

	ok, err = c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	return token, ok, nil
}

// ReleaseCheckoutLock releases the per-user checkout lock if the token
// still owns it. Releasing an expired or stolen lock is a no-op.
func (c *Client) ReleaseCheckoutLock(ctx context.Context, userID int64, token string) error {
	key := checkoutLockKey(userID)

	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{key}, token).Result(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// SetCartCount caches the cart badge count for a user
func (c *Client) SetCartCount(ctx context.Context, userID int64, count int, ttl time.Duration) error {
	return c.rdb.Set(ctx, cartCountKey(userID), count, ttl).Err()
}

// GetCartCount retrieves the cached cart badge count. The second return
// value is false on a cache miss.
func (c *Client) GetCartCount(ctx context.Context, userID int64) (int, bool, error) {
	count, err := c.rdb.Get(ctx, cartCountKey(userID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// InvalidateCartCount drops the cached cart badge count after a cart
// mutation
func (c *Client) InvalidateCartCount(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, cartCountKey(userID)).Err()
}

func checkoutLockKey(userID int64) string {
	return fmt.Sprintf("checkout:lock:%d", userID)
}

func cartCountKey(userID int64) string {
	return fmt.Sprintf("cart:count:%d", userID)
}
