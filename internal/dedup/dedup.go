// Package dedup implements the duplicate-validation filter: a short-lived,
// bounded cache of recently-seen SQL text used to skip re-running the full
// rule set against a statement submitted again within a small window
// (typical of a tight retry loop or an ORM re-preparing the same query).
//
// The source tooling this is modelled on keyed this per calling thread.
// Go has no thread-local storage, so a Filter is just a value the caller
// owns one instance of per concurrent worker — share one Filter across a
// pool to dedupe globally, or give each goroutine its own to scope
// suppression to that goroutine's traffic. See DESIGN.md for the full
// reasoning.
package dedup

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultTTL matches the ~100ms window used by the tooling this filter is
// modelled on: long enough to catch an immediate retry, short enough that
// it never suppresses a legitimately repeated query.
const DefaultTTL = 100 * time.Millisecond

// DefaultCapacity bounds memory use under high-cardinality SQL text.
const DefaultCapacity = 1024

// Filter suppresses repeat validation of identical SQL text within TTL.
type Filter struct {
	cache *ttlcache.Cache[string, struct{}]
}

// New builds a Filter. A zero ttl uses DefaultTTL; a zero capacity uses
// DefaultCapacity.
func New(ttl time.Duration, capacity uint64) *Filter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	c := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](ttl),
		ttlcache.WithCapacity[string, struct{}](capacity),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go c.Start()
	return &Filter{cache: c}
}

// Seen reports whether sql was already validated within the TTL window and
// records this occurrence so a subsequent call within the window also
// reports true. A nil Filter never suppresses anything.
func (f *Filter) Seen(sql string) bool {
	if f == nil {
		return false
	}
	if item := f.cache.Get(sql); item != nil {
		return true
	}
	f.cache.Set(sql, struct{}{}, ttlcache.DefaultTTL)
	return false
}

// Clear empties the filter, matching the source tooling's clearThreadCache
// test hook. Flipping an enforcement toggle at runtime does not imply a
// Clear — entries already inside the TTL window keep suppressing their
// duplicate until they expire naturally; call Clear explicitly if a
// config change should invalidate in-flight suppression state.
func (f *Filter) Clear() {
	if f != nil {
		f.cache.DeleteAll()
	}
}

// Close stops the filter's background eviction goroutine.
func (f *Filter) Close() {
	if f != nil {
		f.cache.Stop()
	}
}
