// Package resultcache memoizes KPI results for a fixed time-to-live.
package resultcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a computed result is served before recomputation.
const DefaultTTL = 600 * time.Second

// Key identifies one memoized result: the KPI name and the rendered
// parameters actually bound to it.
type Key struct {
	KPI    string
	Params string
}

func (k Key) String() string {
	return k.KPI + "|" + k.Params
}

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Stats are counters since construction or the last Purge.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Cache is an exact-key TTL memo. Concurrent misses on the same key share a
// single computation; failed computations are never stored.
type Cache[V any] struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[Key]entry[V]
	hits    uint64
	misses  uint64

	sf singleflight.Group
}

// New creates a cache reading time from clock. A non-positive ttl falls back
// to DefaultTTL.
func New[V any](clock clockwork.Clock, ttl time.Duration) *Cache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[Key]entry[V]),
	}
}

// TTL returns the configured time-to-live.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[V]) expired(e entry[V], now time.Time) bool {
	return now.Sub(e.createdAt) >= c.ttl
}

// Get returns the live value for key.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.expired(e, c.clock.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[V]) Set(key Key, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, createdAt: c.clock.Now()}
	c.mu.Unlock()
}

// GetOrCompute returns the live value for key, or runs compute and stores its
// result. An error from compute is returned as is and nothing is stored.
func (c *Cache[V]) GetOrCompute(key Key, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}

	computed := false
	v, err, _ := c.sf.Do(key.String(), func() (any, error) {
		// Another caller may have stored the key while this one waited.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		computed = true
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()

		fresh, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, fresh)
		return fresh, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	if !computed {
		// Served by another caller's computation.
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}

	value, ok := v.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("singleflight returned unexpected type %T", v)
	}
	return value, nil
}

// PurgeExpired drops entries past their TTL and returns how many were removed.
func (c *Cache[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Purge drops every entry and resets the counters.
func (c *Cache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]entry[V])
	c.hits, c.misses = 0, 0
	return n
}

// Len counts stored entries, expired ones included until purged.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
