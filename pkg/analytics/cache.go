package analytics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/drivelens/drivelens/pkg/types"
)

// Fingerprint keys cached insights by account identity plus a digest of the
// aggregate. The digest is deliberately lossy: it tracks file count, total
// size, owner count and the latest activity month, so an edit that changes
// none of those serves slightly stale insights until the TTL lapses.
func Fingerprint(accountID string, data *types.AnalyticsResult) string {
	return fmt.Sprintf("%s:%d:%s:%d:%s",
		accountID,
		data.TotalFiles,
		strconv.FormatFloat(data.TotalSize, 'f', -1, 64),
		data.UniqueOwners,
		data.LastMonth(),
	)
}

type cacheEntry struct {
	insights  []string
	createdAt time.Time
}

// InsightsCache holds generated insights with TTL expiry. Expiry is lazy on
// read; a sweep of expired entries runs when the entry count crosses
// maxEntries. State is process-local.
type InsightsCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewInsightsCache creates a cache with the given TTL and sweep threshold
func NewInsightsCache(ttl time.Duration, maxEntries int) *InsightsCache {
	return &InsightsCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// NewInsightsCacheWithClock creates a cache with a custom clock, used in tests
func NewInsightsCacheWithClock(ttl time.Duration, maxEntries int, now func() time.Time) *InsightsCache {
	c := NewInsightsCache(ttl, maxEntries)
	c.now = now
	return c
}

// Get returns the cached insights for a fingerprint when still fresh
func (c *InsightsCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.insights, true
}

// Put stores insights for a fingerprint and sweeps expired entries when the
// cache has grown past its threshold
func (c *InsightsCache) Put(key string, insights []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{insights: insights, createdAt: now}

	if len(c.entries) > c.maxEntries {
		for k, entry := range c.entries {
			if now.Sub(entry.createdAt) >= c.ttl {
				delete(c.entries, k)
			}
		}
	}
}
