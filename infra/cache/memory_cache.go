package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/topup/pkg/cache"
	"github.com/amirasaad/topup/pkg/domain/leaderboard"
)

// MemoryCache implements cache.LeaderboardCache in process memory. It is
// used when no Redis URL is configured.
type MemoryCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
}

var _ cache.LeaderboardCache = (*MemoryCache)(nil)

type cacheEntry struct {
	board     *leaderboard.Board
	expiresAt time.Time
}

// NewMemoryCache creates a cache and starts its cleanup loop. The loop
// stops when ctx is done.
func NewMemoryCache(ctx context.Context) *MemoryCache {
	c := &MemoryCache{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
	}
	go c.cleanup(ctx, 5*time.Minute)
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (*leaderboard.Board, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.board, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, board *leaderboard.Board, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = &cacheEntry{board: board, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
	return nil
}

func (c *MemoryCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.cache {
		if now.After(entry.expiresAt) {
			delete(c.cache, key)
		}
	}
}
