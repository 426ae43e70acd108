package query

import (
	"hash/fnv"
	"strconv"
	"time"

	"tq/internal/task"
)

// Explanation cache defaults.
const (
	DefaultExplanationCacheCapacity = 16
	DefaultExplanationCacheTTL      = 5 * time.Minute
)

// ExplanationCache is the optional LRU+TTL cache for explain output,
// separate from the result cache. Keys combine a hash of the canonical
// query with a hash of every task's id and last-modified instant, so any
// change to the task set naturally misses. Expired entries are removed
// lazily on access; capacity eviction drops the oldest-inserted entry.
type ExplanationCache struct {
	capacity int
	ttl      time.Duration
	entries  map[uint64]*explanationEntry
	order    []uint64 // insertion order, oldest first
	now      func() time.Time
}

type explanationEntry struct {
	explanation *Explanation
	storedAt    time.Time
}

// NewExplanationCache creates a cache with the given capacity and TTL.
// Non-positive values fall back to the defaults.
func NewExplanationCache(capacity int, ttl time.Duration) *ExplanationCache {
	if capacity <= 0 {
		capacity = DefaultExplanationCacheCapacity
	}

	if ttl <= 0 {
		ttl = DefaultExplanationCacheTTL
	}

	return &ExplanationCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[uint64]*explanationEntry),
		now:      time.Now,
	}
}

// Key derives the cache key for a query over a task snapshot.
func (c *ExplanationCache) Key(queryCanonical string, tasks []task.Task) uint64 {
	h := fnv.New64a()

	_, _ = h.Write([]byte(queryCanonical))

	for i := range tasks {
		_, _ = h.Write([]byte(tasks[i].ID))
		_, _ = h.Write([]byte(strconv.FormatInt(tasks[i].LastModified().UnixNano(), 10)))
	}

	return h.Sum64()
}

// Get returns the cached explanation, or nil on miss or expiry.
func (c *ExplanationCache) Get(key uint64) *Explanation {
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}

	if c.now().Sub(entry.storedAt) > c.ttl {
		c.remove(key)

		return nil
	}

	return entry.explanation
}

// Put stores an explanation, evicting the oldest entry at capacity.
func (c *ExplanationCache) Put(key uint64, exp *Explanation) {
	if _, ok := c.entries[key]; ok {
		c.entries[key].explanation = exp
		c.entries[key].storedAt = c.now()

		return
	}

	if len(c.order) >= c.capacity {
		c.remove(c.order[0])
	}

	c.entries[key] = &explanationEntry{explanation: exp, storedAt: c.now()}
	c.order = append(c.order, key)
}

// Clear empties the cache.
func (c *ExplanationCache) Clear() {
	c.entries = make(map[uint64]*explanationEntry)
	c.order = nil
}

// Len returns the number of live (possibly expired) entries.
func (c *ExplanationCache) Len() int {
	return len(c.entries)
}

func (c *ExplanationCache) remove(key uint64) {
	delete(c.entries, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}
