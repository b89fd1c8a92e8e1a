// Package memory provides an in-process cache for single-replica deployments
// where Redis is not available.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = time.Minute

// Cache implements repository.Cache in memory.
// Entries are not shared between processes.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]cacheItem
	now     func() time.Time
	stopCh  chan struct{}
	stopped bool
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// NewCache creates a cache that sweeps expired entries every interval.
// A non-positive interval uses DefaultCleanupInterval.
func NewCache(interval time.Duration) *Cache {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	c := &Cache{
		items:  make(map[string]cacheItem),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go c.cleanupLoop(interval)

	return c
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		close(c.stopCh)
		c.stopped = true
	}
}

// Close stops the cache; it exists so the cache can be released alongside
// other io.Closer resources.
func (c *Cache) Close() error {
	c.Stop()
	return nil
}

// Len returns the number of stored entries, expired ones included until the
// next sweep.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get retrieves a copy of the value stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || item.expired(c.now()) {
		return nil, repository.ErrCacheMiss
	}

	result := make([]byte, len(item.value))
	copy(result, item.value)
	return result, nil
}

// Set stores a copy of value. A zero ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: valueCopy}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

// Delete removes a value by key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

var _ repository.Cache = (*Cache)(nil)
