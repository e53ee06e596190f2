package cache

import (
	"strconv"
	"sync"
)

// flightIDs hands out a distinct singleflight key per in-use cache key.
// Ids are assigned per K, so keys that print alike (1 and 1.0 as any)
// never share a flight.
type flightIDs[K comparable] struct {
	mu   sync.Mutex
	next uint64
	m    map[K]*flightID
}

type flightID struct {
	key  string
	refs int
}

// acquire returns the id for k, shared by every caller holding it.
func (f *flightIDs[K]) acquire(k K) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.m == nil {
		f.m = make(map[K]*flightID)
	}
	id, ok := f.m[k]
	if !ok {
		f.next++
		id = &flightID{key: strconv.FormatUint(f.next, 10)}
		f.m[k] = id
	}
	id.refs++
	return id.key
}

// release drops one reference; the id is forgotten with the last one.
func (f *flightIDs[K]) release(k K) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.m[k]
	if !ok {
		return
	}
	if id.refs--; id.refs == 0 {
		delete(f.m, k)
	}
}

// inFlight reports how many keys currently hold an id.
func (f *flightIDs[K]) inFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.m)
}
