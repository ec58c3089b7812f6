package application

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/association-planning/internal/metrics"
)

const defaultScheduleCacheSize = 64

// scheduleCache stores recently computed views keyed by date range so that
// repeated planning queries skip the store while nothing changed. A nil
// cache is a valid, always-missing cache.
//
// Every Purge bumps the generation. A view is only stored when the generation
// read before loading its inputs is still current, so a view built from data
// that a concurrent write has since replaced never reaches the cache.
type scheduleCache struct {
	mu         sync.Mutex
	generation uint64
	lru        *expirable.LRU[string, ScheduleView]
}

// newScheduleCache returns nil when ttl disables caching.
func newScheduleCache(ttl time.Duration, size int) *scheduleCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = defaultScheduleCacheSize
	}
	return &scheduleCache{lru: expirable.NewLRU[string, ScheduleView](size, nil, ttl)}
}

func (c *scheduleCache) Get(key string) (ScheduleView, bool) {
	if c == nil {
		return ScheduleView{}, false
	}
	view, ok := c.lru.Get(key)
	metrics.RecordCacheRequest(ok)
	return view, ok
}

// Generation returns the current invalidation generation.
func (c *scheduleCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Add stores view unless the cache was purged since generation was read.
func (c *scheduleCache) Add(key string, view ScheduleView, generation uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	c.lru.Add(key, view)
	return true
}

func (c *scheduleCache) Purge(reason string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	c.lru.Purge()
	c.mu.Unlock()
	metrics.RecordCacheInvalidate(reason)
}

func (c *scheduleCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
