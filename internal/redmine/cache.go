package redmine

import (
	"sync"
	"time"
)

type cachedActivities struct {
	activities []Activity
	fetchedAt  time.Time
}

// ActivityCache keeps the activity list of each Redmine instance for ttl.
type ActivityCache struct {
	mu      sync.RWMutex
	entries map[string]cachedActivities
	ttl     time.Duration
}

func NewActivityCache(ttl time.Duration) *ActivityCache {
	return &ActivityCache{ttl: ttl, entries: make(map[string]cachedActivities)}
}

func (c *ActivityCache) Get(baseURL string) []Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[baseURL]
	if !ok || time.Since(e.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]Activity, len(e.activities))
	copy(result, e.activities)
	return result
}

func (c *ActivityCache) Set(baseURL string, activities []Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]Activity, len(activities))
	copy(stored, activities)
	c.entries[baseURL] = cachedActivities{activities: stored, fetchedAt: time.Now()}
}
