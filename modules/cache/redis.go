package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Engine on a Redis server.
type RedisCache struct {
	config *Config

	mu     sync.RWMutex
	client *redis.Client
}

// NewRedisCache creates a new Redis cache engine
func NewRedisCache(config *Config) *RedisCache {
	return &RedisCache{config: config}
}

// Connect parses the URL, applies the explicit overrides and pings the server.
func (c *RedisCache) Connect(ctx context.Context) error {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid Redis URL: %w", err)
	}
	if c.config.RedisPassword != "" {
		opts.Password = c.config.RedisPassword
	}
	if c.config.RedisDB > 0 {
		opts.DB = c.config.RedisDB
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

func (c *RedisCache) Close(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

func (c *RedisCache) conn() (*redis.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	client, err := c.conn()
	if err != nil {
		return nil, false, err
	}
	b, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	client, err := c.conn()
	if err != nil {
		return err
	}
	return client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	client, err := c.conn()
	if err != nil {
		return err
	}
	return client.Del(ctx, key).Err()
}

// Flush empties the selected database.
func (c *RedisCache) Flush(ctx context.Context) error {
	client, err := c.conn()
	if err != nil {
		return err
	}
	return client.FlushDB(ctx).Err()
}
