// Package cache provides a generic, bounded, in-memory key/value cache with
// least-recently-used eviction, per-entry TTL, hit/miss statistics, and
// batch operations.
//
// Design
//
//   - Storage: a map[K]handle for lookups and an arena of slots threaded
//     into a circular MRU↔LRU list by int32 handles. Slot 0 is a sentinel,
//     so insert and unlink never branch on empty-list or boundary cases.
//     Freed slots are recycled through a free list. All single-item
//     operations are O(1) expected.
//
//   - Concurrency: one RWMutex per cache. Every method is atomic with
//     respect to the others. Batch methods lock per item, so single-item
//     calls from other goroutines may interleave between batch entries.
//
//   - TTL: entries carry an optional absolute deadline (UnixNano). An entry
//     is still valid at the deadline instant and expired strictly after it.
//     Expiration is lazy: Get and Has remove an expired entry they find,
//     Keys skips expired entries without removing them, and Cleanup sweeps
//     all of them. No goroutine runs in the background.
//
//   - Eviction: inserting a new key into a full cache evicts the LRU entry
//     first. Updating an existing key never evicts.
//
//   - Stats: hits and misses are counted by Get only; evictions count LRU
//     evictions only (TTL removals are not evictions). Clear zeroes them.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     NoopMetrics is the default; metrics/prom exports them to Prometheus.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     golang.org/x/sync/singleflight. Without a Loader it returns ErrNoLoader.
//
// Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	_ = c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Delete("a")
//
// With TTL
//
//	c := cache.MustNew[string, string](cache.Options[string, string]{
//	    Capacity:   1024,
//	    DefaultTTL: time.Minute,
//	})
//	_ = c.SetWithTTL("tmp", "v", 200*time.Millisecond)
//
// Batches
//
//	res := c.SetMultiple([]cache.Entry[string, string]{
//	    {Key: "k1", Value: "v1"},
//	    {Key: "k2", Value: "v2", TTL: cache.TTL(50 * time.Millisecond)},
//	})
//	_ = res.Failed // per-entry failures; the batch never aborts
package cache
