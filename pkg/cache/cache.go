// Package cache provides a process-local TTL cache for read-heavy endpoints
// like the dashboard and filter options.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL cache with per-key expirations. Entries are lazily expired
// on read and swept by a background janitor.
type Cache struct {
	entries map[string]*entry
	mu      sync.RWMutex
	hits    int64
	misses  int64
	stopCh  chan struct{}
	stopped sync.Once
}

// Config configures the cache
type Config struct {
	JanitorInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		JanitorInterval: time.Minute,
	}
}

// New creates a new cache and starts its janitor goroutine. Callers own the
// lifecycle and must call Stop on shutdown.
func New(cfg Config) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}

	interval := cfg.JanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go c.janitor(interval)

	return c
}

// Stop stops the janitor goroutine
func (c *Cache) Stop() {
	c.stopped.Do(func() {
		close(c.stopCh)
	})
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Get returns the cached value for key if present and not expired
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(e.expiresAt) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value with its own TTL
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// GetOrLoad returns the cached value for key, or runs loader and caches the
// result. A loader error is returned without caching anything.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) (any, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	c.Set(key, value, ttl)
	return value, nil
}

// Invalidate removes a specific key
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateContaining removes every key containing the substring. Writes to
// meps or committees call this so list and dashboard responses never serve
// stale data past the write.
func (c *Cache) InvalidateContaining(substring string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.Contains(key, substring) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// Clear removes all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Stats returns cache statistics
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}
