package sqlparse

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Cache wraps Parse with a bounded, TTL-based memo keyed on the exact
// (dialect, mode, sql) triple, so re-validating the same statement text
// (a very common case for prepared-statement-shaped traffic) doesn't
// re-run the ANTLR parser every time. It is optional — the guard works
// fine without one, just slower under repeat traffic.
type Cache struct {
	cache *ttlcache.Cache[string, cachedOutcome]
}

type cachedOutcome struct {
	outcome Outcome
	err     error
}

// NewCache builds a parse cache with the given TTL and capacity. A zero TTL
// falls back to 1 second; a zero capacity falls back to 2048 entries.
func NewCache(ttl time.Duration, capacity uint64) *Cache {
	if ttl <= 0 {
		ttl = time.Second
	}
	if capacity == 0 {
		capacity = 2048
	}
	c := ttlcache.New[string, cachedOutcome](
		ttlcache.WithTTL[string, cachedOutcome](ttl),
		ttlcache.WithCapacity[string, cachedOutcome](capacity),
	)
	go c.Start()
	return &Cache{cache: c}
}

// Parse parses sql under dialect/mode, serving a cached result when present.
func (c *Cache) Parse(d Dialect, sql string, mode Mode) (Outcome, error) {
	if c == nil {
		return Parse(d, sql, mode)
	}
	key := d.String() + "\x00" + modeKey(mode) + "\x00" + sql
	if item := c.cache.Get(key); item != nil {
		v := item.Value()
		return v.outcome, v.err
	}
	outcome, err := Parse(d, sql, mode)
	c.cache.Set(key, cachedOutcome{outcome: outcome, err: err}, ttlcache.DefaultTTL)
	return outcome, err
}

// Close stops the cache's background eviction goroutine.
func (c *Cache) Close() {
	if c != nil {
		c.cache.Stop()
	}
}

func modeKey(m Mode) string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}
