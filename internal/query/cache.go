package query

import (
	"strings"
	"time"
)

// DefaultResultCacheCapacity bounds the result cache when the caller
// passes no explicit capacity.
const DefaultResultCacheCapacity = 64

// CacheEntry is one stored execution result.
type CacheEntry struct {
	Key       string
	Result    *Result
	Timestamp time.Time
	HitCount  int
}

// ResultCache stores execution results keyed by canonical AST
// serialization. Eviction is oldest-inserted at capacity; the cache never
// expires entries on its own - invalidation is caller-driven. Like the
// rest of the engine it is a plain mutable structure with no internal
// locking; hosts running queries from multiple goroutines must serialize.
type ResultCache struct {
	capacity int
	entries  map[string]*CacheEntry
	order    []string // insertion order, oldest first
	now      func() time.Time
}

// NewResultCache creates a cache holding at most capacity entries.
// Non-positive capacity falls back to [DefaultResultCacheCapacity].
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultResultCacheCapacity
	}

	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]*CacheEntry),
		now:      time.Now,
	}
}

// Get returns the stored result for key, or nil on miss. Hits bump the
// entry's hit count but do not refresh its age.
func (c *ResultCache) Get(key string) *Result {
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}

	entry.HitCount++

	return entry.Result
}

// Put stores a fresh result, evicting the oldest-inserted entry when the
// cache is full. Overwriting an existing key keeps its insertion slot.
func (c *ResultCache) Put(key string, result *Result) {
	if existing, ok := c.entries[key]; ok {
		existing.Result = result
		existing.Timestamp = c.now()

		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &CacheEntry{Key: key, Result: result, Timestamp: c.now()}
	c.order = append(c.order, key)
}

// InvalidateMatching removes every entry whose key contains the pattern
// as a substring and returns how many were dropped.
func (c *ResultCache) InvalidateMatching(pattern string) int {
	var kept []string

	dropped := 0

	for _, key := range c.order {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			dropped++

			continue
		}

		kept = append(kept, key)
	}

	c.order = kept

	return dropped
}

// InvalidateAll empties the cache.
func (c *ResultCache) InvalidateAll() {
	c.entries = make(map[string]*CacheEntry)
	c.order = nil
}

// Len returns the number of live entries.
func (c *ResultCache) Len() int {
	return len(c.entries)
}

// Hits returns the hit count for a key, 0 when absent.
func (c *ResultCache) Hits(key string) int {
	if entry, ok := c.entries[key]; ok {
		return entry.HitCount
	}

	return 0
}
