package news

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stock-sentinel/internal/interfaces"
	"stock-sentinel/internal/logger"
	"stock-sentinel/internal/types"
)

// Service puts a TTL cache in front of a news provider so repeated runs for
// the same symbol within the window do not hit the provider again.
type Service struct {
	provider interfaces.NewsProvider
	cache    *newsCache
}

var _ interfaces.NewsProvider = (*Service)(nil)

// newsCache stores search results temporarily
type newsCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

type cacheEntry struct {
	items     []types.NewsItem
	timestamp time.Time
}

// newNewsCache creates a new cache with a background cleanup loop
func newNewsCache(ttl, cleanupEvery time.Duration) *newsCache {
	cache := &newsCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
		stop: make(chan struct{}),
	}

	go cache.cleanupLoop(cleanupEvery)

	return cache
}

// get retrieves cached results if still valid
func (c *newsCache) get(key string) ([]types.NewsItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}

	return append([]types.NewsItem(nil), entry.items...), true
}

// set stores results in the cache
func (c *newsCache) set(key string, items []types.NewsItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		items:     append([]types.NewsItem(nil), items...),
		timestamp: time.Now(),
	}
}

// cleanupLoop periodically removes expired entries until close is called
func (c *newsCache) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes expired entries
func (c *newsCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, key)
		}
	}
}

func (c *newsCache) close() {
	c.once.Do(func() { close(c.stop) })
}

// NewService wraps provider with a cache holding results for ttl.
func NewService(provider interfaces.NewsProvider, ttl time.Duration) *Service {
	cleanupEvery := 10 * time.Minute
	if ttl < cleanupEvery {
		cleanupEvery = ttl
	}
	if cleanupEvery <= 0 {
		cleanupEvery = time.Minute
	}
	return &Service{
		provider: provider,
		cache:    newNewsCache(ttl, cleanupEvery),
	}
}

func cacheKey(query string, recencyDays int) string {
	return fmt.Sprintf("%s|%d", query, recencyDays)
}

// Search returns cached results when fresh, otherwise asks the provider.
// Failures and empty results are not cached.
func (s *Service) Search(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	key := cacheKey(query, recencyDays)
	if cached, ok := s.cache.get(key); ok {
		logger.Info(ctx, "Using cached news", "query", query, "items", len(cached))
		return cached, nil
	}

	items, err := s.provider.Search(ctx, query, recencyDays)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.cache.set(key, items)
	}
	return items, nil
}

// Refresh bypasses the cache and stores the fresh result.
func (s *Service) Refresh(ctx context.Context, query string, recencyDays int) ([]types.NewsItem, error) {
	items, err := s.provider.Search(ctx, query, recencyDays)
	if err != nil {
		return nil, err
	}
	s.cache.set(cacheKey(query, recencyDays), items)
	return items, nil
}

// ClearCache removes all cached results
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// CachedQueries returns the cache keys currently held, sorted.
func (s *Service) CachedQueries() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	keys := make([]string, 0, len(s.cache.data))
	for k := range s.cache.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close stops the cache cleanup goroutine.
func (s *Service) Close() {
	s.cache.close()
}
