package market

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
)

const sharedFetchTimeout = 30 * time.Second

type cacheEntry struct {
	data      domain.MarketData
	expiresAt time.Time
}

// CachedProvider memoises snapshots per category for a fixed TTL. Concurrent
// misses for one category share a single upstream fetch. Errors are not cached.
type CachedProvider struct {
	next  Provider
	ttl   time.Duration
	nowFn func() time.Time

	mu      sync.RWMutex
	entries map[domain.Category]cacheEntry
	group   singleflight.Group
}

// NewCachedProvider wraps next. A non-positive ttl disables caching.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:    next,
		ttl:     ttl,
		nowFn:   time.Now,
		entries: make(map[domain.Category]cacheEntry),
	}
}

// WithClock overrides the cache clock, mainly for tests.
func (c *CachedProvider) WithClock(fn func() time.Time) *CachedProvider {
	if fn != nil {
		c.nowFn = fn
	}
	return c
}

// MarketData implements Provider.
func (c *CachedProvider) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	if c.ttl <= 0 {
		return c.next.MarketData(ctx, category)
	}

	if data, ok := c.lookup(category); ok {
		metrics.MarketCacheHits.Inc()
		return data, nil
	}
	metrics.MarketCacheMisses.Inc()

	// The shared fetch outlives any single caller; each caller still honours
	// its own context while waiting.
	ch := c.group.DoChan(string(category), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		data, err := c.next.MarketData(fetchCtx, category)
		if err != nil {
			return domain.MarketData{}, err
		}
		c.mu.Lock()
		c.entries[category] = cacheEntry{data: data, expiresAt: c.nowFn().Add(c.ttl)}
		c.mu.Unlock()
		return data, nil
	})

	select {
	case <-ctx.Done():
		return domain.MarketData{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.MarketData{}, res.Err
		}
		return res.Val.(domain.MarketData), nil
	}
}

// Invalidate drops every cached snapshot.
func (c *CachedProvider) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[domain.Category]cacheEntry)
	c.mu.Unlock()
}

func (c *CachedProvider) lookup(category domain.Category) (domain.MarketData, bool) {
	c.mu.RLock()
	entry, ok := c.entries[category]
	c.mu.RUnlock()
	if !ok || !c.nowFn().Before(entry.expiresAt) {
		return domain.MarketData{}, false
	}
	return entry.data, true
}
