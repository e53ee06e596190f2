package cache

import (
	"context"
	"log/slog"
	"time"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictLRU — removed from the LRU end to make room for a new key.
	EvictLRU EvictReason = iota
	// EvictExpired — expired by TTL (lazy on access, or by Cleanup).
	EvictExpired
)

// String returns a stable lowercase name, suitable for metric labels.
func (r EvictReason) String() string {
	switch r {
	case EvictLRU:
		return "lru"
	case EvictExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe except
// Capacity, which must be positive. Defaults applied in New():
//   - nil Metrics  => NoopMetrics
//   - nil Clock    => wall clock
//   - nil Logger   => discard
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit.
	Capacity int

	// DefaultTTL applies to Set/Add when no per-call TTL is given.
	// 0 disables the default; negative values are rejected by New.
	DefaultTTL time.Duration

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called under the cache lock for LRU evictions and TTL
	// removals, never for Delete or Clear. Keep it light and do not call
	// back into the cache.
	OnEvict func(k K, v V, reason EvictReason)
	Metrics Metrics

	// Clock allows overriding time source (tests). Nil => time.Now().
	Clock Clock

	Logger *slog.Logger
}
