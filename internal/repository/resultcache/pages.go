package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/investigo/internal/db"
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
)

const remoteKeyPrefix = "investigo:"

// TTLs maps criterion types to cache lifetimes.
type TTLs map[criterion.Type]time.Duration

// DefaultTTLs returns lifetimes ordered by how stable each kind of value is.
func DefaultTTLs() TTLs {
	return TTLs{
		criterion.Phone:        60 * time.Minute,
		criterion.Email:        60 * time.Minute,
		criterion.GovernmentID: 60 * time.Minute,
		criterion.Account:      30 * time.Minute,
		criterion.Name:         15 * time.Minute,
		criterion.Company:      15 * time.Minute,
		criterion.Keyword:      10 * time.Minute,
		criterion.Location:     5 * time.Minute,
	}
}

// kvStore is the consumer interface for the shared tier (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// remoteEntry is the shared-tier payload. CreatedAt lets a reader keep the
// writer's expiry instead of restarting the ttl on its own clock.
type remoteEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Set       page.Set  `json:"set"`
}

// PageCache caches page sets per (type, normalized value) in memory and,
// optionally, in a shared key-value store.
type PageCache struct {
	local      *LRU[page.Set]
	remote     kvStore
	ttls       TTLs
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewPageCache creates a page cache. remote and cacheTotal may be nil.
// cacheTotal is a counter vec with labels "tier" and "result" ("hit"/"miss").
func NewPageCache(
	local *LRU[page.Set],
	remote kvStore,
	ttls TTLs,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *PageCache {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageCache{local: local, remote: remote, ttls: ttls, cacheTotal: cacheTotal, logger: logger}
}

// Key returns the cache key for a term.
func Key(t criterion.Type, normalized string) string {
	return "term:" + string(t) + ":" + normalized
}

// TTL returns the lifetime for entries of type t.
func (c *PageCache) TTL(t criterion.Type) time.Duration {
	if c == nil {
		return 0
	}
	return c.ttls[t]
}

// Get returns the cached page set for a term.
func (c *PageCache) Get(ctx context.Context, t criterion.Type, normalized string) (page.Set, bool) {
	if c == nil {
		return page.Set{}, false
	}
	key := Key(t, normalized)

	if set, ok := c.local.Get(key); ok {
		c.inc("memory", "hit")
		return set, true
	}
	c.inc("memory", "miss")

	if c.remote == nil {
		return page.Set{}, false
	}
	set, remaining, ok := c.getRemote(ctx, key, c.ttls[t])
	if !ok {
		c.inc("redis", "miss")
		return page.Set{}, false
	}
	c.inc("redis", "hit")
	c.local.Set(key, set, remaining)
	return set, true
}

// Put stores a completed page set for a term.
func (c *PageCache) Put(ctx context.Context, t criterion.Type, normalized string, set page.Set) {
	if c == nil {
		return
	}
	key := Key(t, normalized)
	ttl := c.ttls[t]
	c.local.Set(key, set, ttl)

	if c.remote == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(remoteEntry{CreatedAt: c.local.clock(), Set: set})
	if err != nil {
		c.logger.Warn("Failed to encode page set", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.remote.SetWithTTL(ctx, remoteKeyPrefix+key, data, ttl); err != nil {
		c.logger.Warn("Failed to cache page set", zap.String("key", key), zap.Error(err))
	}
}

// Stats returns the in-memory tier counters.
func (c *PageCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.local.Stats()
}

// getRemote returns the shared entry and its remaining lifetime.
// Entries older than ttl or unreadable are deleted and reported as misses.
func (c *PageCache) getRemote(ctx context.Context, key string, ttl time.Duration) (page.Set, time.Duration, bool) {
	data, err := c.remote.Get(ctx, remoteKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached page set", zap.String("key", key), zap.Error(err))
		}
		return page.Set{}, 0, false
	}
	if len(data) == 0 {
		return page.Set{}, 0, false
	}

	var e remoteEntry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached page set", zap.String("key", key), zap.Error(err))
		c.drop(ctx, key)
		return page.Set{}, 0, false
	}
	remaining := ttl - c.local.clock().Sub(e.CreatedAt)
	if e.CreatedAt.IsZero() || remaining <= 0 {
		c.drop(ctx, key)
		return page.Set{}, 0, false
	}
	return e.Set, remaining, true
}

func (c *PageCache) drop(ctx context.Context, key string) {
	if err := c.remote.Del(ctx, remoteKeyPrefix+key); err != nil {
		c.logger.Warn("Failed to drop cached page set", zap.String("key", key), zap.Error(err))
	}
}

func (c *PageCache) inc(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}
