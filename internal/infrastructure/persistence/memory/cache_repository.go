// Package memory keeps workspaces and catalog lookups in process when Redis
// is not configured. Nothing survives a restart.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/harvestchef/harvest/internal/ports/outbound"
)

const (
	defaultTTL    = 24 * time.Hour
	sweepInterval = 5 * time.Minute
)

type entry struct {
	value    []byte
	deadline time.Time
}

func (e entry) live(now time.Time) bool { return now.Before(e.deadline) }

// CacheRepository is a TTL map. Values are cloned on the way in and out so
// callers never share backing arrays.
type CacheRepository struct {
	mu      sync.RWMutex
	entries map[string]entry

	done      chan struct{}
	closeOnce sync.Once
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository starts a sweeper that drops expired keys until Close.
func NewCacheRepository() *CacheRepository {
	c := &CacheRepository{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func (c *CacheRepository) lookup(key string) (entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	return e, ok && e.live(time.Now())
}

func (c *CacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.lookup(key)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return bytes.Clone(e.value), nil
}

// Set stores value for ttl, or a day when ttl is not positive.
func (c *CacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	e := entry{value: bytes.Clone(value), deadline: time.Now().Add(ttl)}
	if e.value == nil {
		e.value = []byte{}
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *CacheRepository) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *CacheRepository) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

// Ping never fails.
func (c *CacheRepository) Ping(context.Context) error { return nil }

// Close stops the sweeper. It is safe to call more than once.
func (c *CacheRepository) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *CacheRepository) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

func (c *CacheRepository) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}
