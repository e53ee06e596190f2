package cache

import (
	"context"
	"time"
)

// Cache is a bounded in-memory key/value cache with LRU eviction and
// per-entry TTL. All methods are safe for concurrent use by multiple
// goroutines; each call is atomic with respect to the others.
//
// Single-item operations are O(1) expected: one map access plus a constant
// number of list link fixes under the cache lock.
type Cache[K comparable, V any] interface {
	// Get returns the value for k and a presence flag.
	// On hit, the entry is promoted to most-recently-used. An expired
	// entry is removed and reported as a miss.
	Get(k K) (V, bool)

	// Set inserts or updates k→v using the cache's DefaultTTL (if any).
	// Updating an existing key replaces value and deadline in place and
	// promotes it; inserting a new key into a full cache evicts the LRU
	// entry first. It fails only with ErrClosed.
	Set(k K, v V) error

	// SetWithTTL is Set with an explicit relative TTL that overrides
	// DefaultTTL. A zero ttl expires the entry as soon as the clock moves;
	// a negative ttl returns ErrInvalidTTL.
	SetWithTTL(k K, v V, ttl time.Duration) error

	// Add inserts k→v only if k is absent (an expired entry counts as
	// absent). Returns false if a live entry exists or the cache is closed.
	Add(k K, v V) bool

	// Delete removes k and reports whether it was present.
	// Hit/miss counters are not affected.
	Delete(k K) bool

	// Has reports whether a live entry exists for k. Like Get it removes an
	// expired entry, but it neither promotes nor touches the counters.
	Has(k K) bool

	// Clear removes every entry and resets hits, misses and evictions.
	Clear()

	// Keys returns the keys of live entries, most recent first. Expired
	// entries are skipped but left in place.
	Keys() []K

	// Cleanup removes every expired entry and returns how many it removed.
	Cleanup() int

	// Stats returns a snapshot of the counters.
	Stats() Stats

	// Len returns the number of resident entries, including expired
	// entries that have not been collected yet.
	Len() int

	// GetOrLoad returns the value for k, loading it via Options.Loader on miss.
	// Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// SetMultiple calls Set (or SetWithTTL) once per entry, in order.
	SetMultiple(entries []Entry[K, V]) SetResult[K]

	// GetMultiple calls Get once per key, in order.
	GetMultiple(keys []K) GetResult[K, V]

	// DeleteMultiple calls Delete once per key, in order.
	DeleteMultiple(keys []K) DeleteResult[K]

	// Close marks the cache closed: writes fail with ErrClosed and Get
	// reports a counted miss. It is idempotent and always returns nil.
	Close() error
}
