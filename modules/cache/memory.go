package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements Engine using in-memory storage
type MemoryCache struct {
	config *Config

	mutex      sync.RWMutex
	items      map[string]cacheItem
	cancelFunc context.CancelFunc
	done       chan struct{}
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates a new memory cache engine
func NewMemoryCache(config *Config) *MemoryCache {
	return &MemoryCache{
		config: config,
		items:  make(map[string]cacheItem),
	}
}

// Connect starts the cleanup loop.
func (c *MemoryCache) Connect(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cancelFunc != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFunc = cancel
	c.done = make(chan struct{})
	go c.startCleanupTimer(ctx, c.done)
	return nil
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close(_ context.Context) error {
	c.mutex.Lock()
	cancel, done := c.cancelFunc, c.done
	c.cancelFunc, c.done = nil, nil
	c.mutex.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.items[key]
	if !found || item.expired(time.Now()) {
		return nil, false, nil
	}
	return item.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// If cache is full, reject new items
	if _, exists := c.items[key]; !exists && c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		return ErrCacheFull
	}

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.items[key] = cacheItem{value: append([]byte(nil), value...), expiration: exp}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
	return nil
}

func (c *MemoryCache) Flush(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Len returns the number of stored items, expired ones included until the next cleanup.
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) startCleanupTimer(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredItems()
		case <-ctx.Done():
			return
		}
	}
}

func (c *MemoryCache) cleanupExpiredItems() {
	now := time.Now()
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
}
