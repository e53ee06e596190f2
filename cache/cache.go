package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidCapacity is returned by New when Options.Capacity <= 0.
	ErrInvalidCapacity = errors.New("cache: capacity must be > 0")
	// ErrInvalidTTL is returned for a negative TTL.
	ErrInvalidTTL = errors.New("cache: ttl must be >= 0")
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("cache: closed")
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// cache is the single-lock LRU/TTL engine behind Cache.
type cache[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu        sync.RWMutex
	idx       *index[K, V]
	hits      uint64
	misses    uint64
	evictions uint64

	capacity int
	closed   atomic.Bool
	opt      Options[K, V]
	log      *slog.Logger

	// coalesces concurrent loads in GetOrLoad.
	sf      singleflight.Group
	flights flightIDs[K]
}

// New constructs a cache with the provided Options.
// It fails if Capacity is not positive or DefaultTTL is negative.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if opt.Capacity <= 0 {
		return nil, fmt.Errorf("new cache (capacity %d): %w", opt.Capacity, ErrInvalidCapacity)
	}
	if opt.DefaultTTL < 0 {
		return nil, fmt.Errorf("new cache (default ttl %s): %w", opt.DefaultTTL, ErrInvalidTTL)
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &cache[K, V]{
		idx:      newIndex[K, V](opt.Capacity),
		capacity: opt.Capacity,
		opt:      opt,
		log:      log.With("component", "cache"),
	}, nil
}

// MustNew is like New but panics on invalid Options.
func MustNew[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	c, err := New(opt)
	if err != nil {
		panic(err)
	}
	return c
}

// ---- Cache[K,V] implementation ----

// Get returns the value for k and promotes it on hit.
func (c *cache[K, V]) Get(k K) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		c.missLocked()
		return zero, false
	}
	h, ok := c.idx.lookup(k)
	if !ok {
		c.missLocked()
		return zero, false
	}
	if c.idx.at(h).expiredAt(c.now()) {
		c.expireLocked(h)
		c.missLocked()
		return zero, false
	}

	c.idx.moveToFront(h)
	c.hits++
	c.opt.Metrics.Hit()
	return c.idx.at(h).val, true
}

// Set inserts or updates k→v using DefaultTTL.
func (c *cache[K, V]) Set(k K, v V) error {
	if c.closed.Load() {
		return ErrClosed
	}
	exp, hasExp := c.defaultDeadline()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(k, v, exp, hasExp)
	return nil
}

// SetWithTTL inserts or updates k→v with a per-key TTL (relative duration).
func (c *cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if ttl < 0 {
		return fmt.Errorf("set %v (ttl %s): %w", k, ttl, ErrInvalidTTL)
	}
	exp := c.deadline(ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(k, v, exp, true)
	return nil
}

// Add inserts k→v only if no live entry exists for k.
func (c *cache[K, V]) Add(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	exp, hasExp := c.defaultDeadline()
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.idx.lookup(k); ok {
		if !c.idx.at(h).expiredAt(c.now()) {
			return false
		}
		c.expireLocked(h)
	}
	c.setLocked(k, v, exp, hasExp)
	return true
}

// Delete removes k and reports whether it existed.
func (c *cache[K, V]) Delete(k K) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.idx.remove(k) {
		return false
	}
	// Explicit deletes are not evictions.
	c.opt.Metrics.Size(c.idx.len())
	return true
}

// Has reports whether k is live, lazily removing it if expired.
func (c *cache[K, V]) Has(k K) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.idx.lookup(k)
	if !ok {
		return false
	}
	if c.idx.at(h).expiredAt(c.now()) {
		c.expireLocked(h)
		return false
	}
	return true
}

// Clear drops all entries and zeroes the counters.
func (c *cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.idx.len()
	c.idx.reset()
	c.hits, c.misses, c.evictions = 0, 0, 0
	c.opt.Metrics.Size(0)
	c.log.Debug("cleared", "entries", n)
}

// Keys returns live keys, MRU first, without removing expired ones.
func (c *cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	keys := make([]K, 0, c.idx.len())
	c.idx.eachMRU(func(_ handle, s *slot[K, V]) {
		if !s.expiredAt(now) {
			keys = append(keys, s.key)
		}
	})
	return keys
}

// Cleanup removes all expired entries.
func (c *cache[K, V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := c.idx.sweep(func(s *slot[K, V]) bool {
		if !s.expiredAt(now) {
			return false
		}
		c.notifyEvict(s.key, s.val, EvictExpired)
		return true
	})
	if n > 0 {
		c.opt.Metrics.Size(c.idx.len())
		c.log.Debug("cleanup", "removed", n, "remaining", c.idx.len())
	}
	return n
}

// Stats returns a snapshot of the counters.
func (c *cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   hitRate(c.hits, c.misses),
		Size:      c.idx.len(),
		MaxSize:   c.capacity,
		Evictions: c.evictions,
	}
}

// Len returns the number of resident entries.
func (c *cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx.len()
}

// Close marks the cache as closed. Later writes fail with ErrClosed and
// Get reports a miss (still counted in Stats).
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight).
// A caller whose ctx ends while waiting returns ctx.Err(); the load itself
// keeps running for the other waiters.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	var zero V
	// fast path
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		return zero, ErrNoLoader
	}

	id := c.flights.acquire(k)
	defer c.flights.release(k)

	ch := c.sf.DoChan(id, func() (any, error) {
		// double-check after flight join, without touching hit/miss counters
		if v, ok := c.peek(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err != nil {
			return nil, err
		}
		// A closed cache still hands the loaded value to the callers.
		_ = c.Set(k, v)
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, fmt.Errorf("load %v: %w", k, r.Err)
		}
		v, _ := r.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// ---- helpers (mu held where the name says Locked) ----

// setLocked is the shared write path for Set, SetWithTTL and Add.
func (c *cache[K, V]) setLocked(k K, v V, exp int64, hasExp bool) {
	if h, ok := c.idx.lookup(k); ok {
		s := c.idx.at(h)
		s.val, s.exp, s.hasExp = v, exp, hasExp
		c.idx.moveToFront(h)
		return
	}
	if c.idx.len() >= c.capacity {
		c.evictLocked()
	}
	c.idx.insertFront(k, v, exp, hasExp)
	c.opt.Metrics.Size(c.idx.len())
}

// evictLocked drops the LRU entry to make room for a new key.
func (c *cache[K, V]) evictLocked() {
	h := c.idx.back()
	if h == sentinel {
		return
	}
	s := c.idx.at(h)
	k, v := s.key, s.val
	c.idx.removeAt(h)
	c.evictions++
	c.notifyEvict(k, v, EvictLRU)
	c.log.Debug("evicted", "key", k, "reason", EvictLRU)
}

// expireLocked drops an expired entry. It is not counted in Stats.Evictions.
func (c *cache[K, V]) expireLocked(h handle) {
	s := c.idx.at(h)
	k, v := s.key, s.val
	c.idx.removeAt(h)
	c.notifyEvict(k, v, EvictExpired)
	c.opt.Metrics.Size(c.idx.len())
	c.log.Debug("expired", "key", k)
}

func (c *cache[K, V]) missLocked() {
	c.misses++
	c.opt.Metrics.Miss()
}

func (c *cache[K, V]) notifyEvict(k K, v V, reason EvictReason) {
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}

// peek returns a live value without promoting it or counting a lookup.
func (c *cache[K, V]) peek(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h, ok := c.idx.lookup(k); ok {
		if s := c.idx.at(h); !s.expiredAt(c.now()) {
			return s.val, true
		}
	}
	var zero V
	return zero, false
}

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// defaultDeadline returns an absolute deadline based on DefaultTTL.
func (c *cache[K, V]) defaultDeadline() (int64, bool) {
	if c.opt.DefaultTTL <= 0 {
		return 0, false
	}
	return c.deadline(c.opt.DefaultTTL), true
}

// deadline converts a relative TTL into an absolute UnixNano deadline,
// saturating at math.MaxInt64.
func (c *cache[K, V]) deadline(ttl time.Duration) int64 {
	now := c.now()
	if int64(ttl) > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + int64(ttl)
}
