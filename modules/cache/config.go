package cache

import (
	"time"
)

// Config defines the configuration for the cache module.
//
// Example YAML configuration:
//
//	engine: redis
//	defaultTTL: 10m
//	redisURL: redis://localhost:6379/1
//	prefix: billing:
type Config struct {
	// Engine is "memory" (default) or "redis".
	Engine string `json:"engine" yaml:"engine" toml:"engine"`

	// DefaultTTL applies when a write passes no TTL. Default: 5m.
	DefaultTTL time.Duration `json:"defaultTTL" yaml:"defaultTTL" toml:"defaultTTL"`

	// CleanupInterval is how often expired items are purged. Memory engine only.
	// Default: 1m.
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval" toml:"cleanupInterval"`

	// MaxItems bounds the memory engine. Zero means unbounded.
	MaxItems int `json:"maxItems" yaml:"maxItems" toml:"maxItems"`

	// RedisURL is the connection URL, redis://[user:pass@]host:port[/db].
	RedisURL string `json:"redisURL" yaml:"redisURL" toml:"redisURL"`

	// RedisPassword overrides the password in RedisURL.
	RedisPassword string `json:"redisPassword" yaml:"redisPassword" toml:"redisPassword"`

	// RedisDB overrides the database in RedisURL when positive.
	RedisDB int `json:"redisDB" yaml:"redisDB" toml:"redisDB"`

	// Prefix is prepended to every key.
	Prefix string `json:"prefix" yaml:"prefix" toml:"prefix"`
}

func (c *Config) applyDefaults() {
	if c.Engine == "" {
		c.Engine = EngineMemory
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
}
