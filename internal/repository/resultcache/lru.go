package resultcache

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultCapacity is the number of keys kept in memory.
const DefaultCapacity = 500

type entry[T any] struct {
	key         string
	payload     T
	createdAt   time.Time
	ttl         time.Duration
	accessCount int
}

func (e *entry[T]) stale(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Hits      int64
	Misses    int64
	Expired   int64
	Evictions int64
}

// LRU is a bounded, TTL-aware, least-recently-used cache safe for concurrent use.
// A nil *LRU, or one created with capacity <= 0, never stores anything.
type LRU[T any] struct {
	mu    sync.Mutex
	inner *simplelru.LRU[string, *entry[T]]
	now   func() time.Time
	stats Stats
	// set while removing a stale entry so the evict callback only counts capacity evictions
	expiring bool
}

// NewLRU creates a cache holding at most capacity keys. now defaults to time.Now.
func NewLRU[T any](capacity int, now func() time.Time) (*LRU[T], error) {
	if now == nil {
		now = time.Now
	}
	c := &LRU[T]{now: now}
	if capacity <= 0 {
		return c, nil
	}
	inner, err := simplelru.NewLRU[string, *entry[T]](capacity, func(string, *entry[T]) {
		if !c.expiring {
			c.stats.Evictions++
		}
	})
	if err != nil {
		return nil, err
	}
	c.inner = inner
	return c, nil
}

// Get returns the payload for key if present and fresh. Stale entries are removed.
func (c *LRU[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inner == nil {
		c.stats.Misses++
		return zero, false
	}
	e, ok := c.inner.Get(key)
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if e.stale(c.now()) {
		c.expiring = true
		c.inner.Remove(key)
		c.expiring = false
		c.stats.Expired++
		c.stats.Misses++
		return zero, false
	}
	e.accessCount++
	c.stats.Hits++
	return e.payload, true
}

// Set stores payload under key for ttl, replacing any previous entry.
// A non-positive ttl stores nothing.
func (c *LRU[T]) Set(key string, payload T, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inner == nil {
		return
	}
	c.inner.Add(key, &entry[T]{key: key, payload: payload, createdAt: c.now(), ttl: ttl})
}

// clock returns the cache's notion of now. A nil cache uses time.Now.
func (c *LRU[T]) clock() time.Time {
	if c == nil {
		return time.Now()
	}
	return c.now()
}

// AccessCount returns how many times key was served, or 0 if absent.
func (c *LRU[T]) AccessCount(key string) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inner == nil {
		return 0
	}
	e, ok := c.inner.Peek(key)
	if !ok {
		return 0
	}
	return e.accessCount
}

// Len returns the number of stored keys, including stale ones not yet read.
func (c *LRU[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

// Stats returns a snapshot of the counters.
func (c *LRU[T]) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	if c.inner != nil {
		s.Len = c.inner.Len()
	}
	return s
}
