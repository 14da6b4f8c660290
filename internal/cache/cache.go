// Package cache provides a two-tier TTL cache: a process-local map in front of
// a pluggable durable store, degrading to local-only when the store fails.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/dashboard-api/internal/telemetry"
)

const (
	tierLocal   = "local"
	tierDurable = "durable"
)

// Entry is a cached value and the moment it was cached.
type Entry[V any] struct {
	Value    V
	CachedAt time.Time
}

// envelope is the durable wire format: {"cachedAt": <epoch millis>, "value": V}.
type envelope[V any] struct {
	CachedAt int64 `json:"cachedAt"`
	Value    V     `json:"value"`
}

type options struct {
	name   string
	now    func() time.Time
	logger zerolog.Logger
}

// Option customizes a TTLCache.
type Option func(*options)

// WithName labels the cache in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for swallowed durable-tier failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// TTLCache is a read-through cache with lazy expiry. Entries are considered
// stale once now-cachedAt >= ttl; nothing is evicted in the background.
//
// The local tier is authoritative for the life of the process; the durable
// tier may lag behind it when writes fail.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	local map[string]Entry[V]

	durable Store
	ttl     time.Duration
	name    string
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a TTLCache. A nil durable store means local-only.
func New[V any](ttl time.Duration, durable Store, opts ...Option) *TTLCache[V] {
	o := options{
		name:   "default",
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if durable == nil {
		durable = NopStore{}
	}

	return &TTLCache[V]{
		local:   make(map[string]Entry[V]),
		durable: durable,
		ttl:     ttl,
		name:    o.name,
		now:     o.now,
		logger:  o.logger.With().Str("component", "cache").Str("cache", o.name).Logger(),
	}
}

// TTL returns the configured time-to-live.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns a fresh value for key, consulting the durable tier when the
// local tier misses. Durable-tier errors are treated as a miss.
func (c *TTLCache[V]) Get(ctx context.Context, key string) (V, bool) {
	now := c.now()

	if entry, ok := c.getLocal(key, now); ok {
		return entry.Value, true
	}

	entry, ok := c.getDurable(ctx, key, now)
	if !ok {
		var zero V
		return zero, false
	}

	// Keep the original timestamp so the repopulated entry expires on schedule.
	c.mu.Lock()
	if cur, exists := c.local[key]; !exists || cur.CachedAt.Before(entry.CachedAt) {
		c.local[key] = entry
	}
	c.mu.Unlock()

	return entry.Value, true
}

// Set stores value in the local tier and then attempts the durable tier.
// A durable failure is logged and never reaches the caller.
func (c *TTLCache[V]) Set(ctx context.Context, key string, value V) {
	entry := Entry[V]{Value: value, CachedAt: c.now()}

	c.mu.Lock()
	c.local[key] = entry
	c.mu.Unlock()

	data, err := json.Marshal(envelope[V]{CachedAt: entry.CachedAt.UnixMilli(), Value: value})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("encode cache entry")
		return
	}

	if err := c.durable.Set(ctx, key, data); err != nil {
		telemetry.CacheWriteErrorsTotal.WithLabelValues(c.name).Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("durable cache write failed; keeping local copy only")
	}
}

func (c *TTLCache[V]) getLocal(key string, now time.Time) (Entry[V], bool) {
	c.mu.RLock()
	entry, ok := c.local[key]
	c.mu.RUnlock()

	if !ok {
		c.record(tierLocal, "miss")
		return Entry[V]{}, false
	}
	if c.expired(entry, now) {
		c.mu.Lock()
		// Only drop it if nobody replaced it in the meantime.
		if cur, still := c.local[key]; still && cur.CachedAt.Equal(entry.CachedAt) {
			delete(c.local, key)
		}
		c.mu.Unlock()
		c.record(tierLocal, "expired")
		return Entry[V]{}, false
	}

	c.record(tierLocal, "hit")
	return entry, true
}

func (c *TTLCache[V]) getDurable(ctx context.Context, key string, now time.Time) (Entry[V], bool) {
	data, ok, err := c.durable.Get(ctx, key)
	if err != nil {
		c.record(tierDurable, "error")
		c.logger.Debug().Err(err).Str("key", key).Msg("durable cache read failed; treating as miss")
		return Entry[V]{}, false
	}
	if !ok {
		c.record(tierDurable, "miss")
		return Entry[V]{}, false
	}

	var env envelope[V]
	if err := json.Unmarshal(data, &env); err != nil {
		c.record(tierDurable, "error")
		c.logger.Debug().Err(err).Str("key", key).Msg("undecodable durable cache entry")
		return Entry[V]{}, false
	}

	entry := Entry[V]{Value: env.Value, CachedAt: time.UnixMilli(env.CachedAt)}
	if c.expired(entry, now) {
		c.record(tierDurable, "expired")
		return Entry[V]{}, false
	}

	c.record(tierDurable, "hit")
	return entry, true
}

func (c *TTLCache[V]) expired(entry Entry[V], now time.Time) bool {
	return now.Sub(entry.CachedAt) >= c.ttl
}

func (c *TTLCache[V]) record(tier, result string) {
	telemetry.CacheLookupsTotal.WithLabelValues(c.name, tier, result).Inc()
}
