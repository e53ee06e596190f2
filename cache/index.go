package cache

// index is the ordered key index: a map from key to arena handle plus a
// circular doubly linked list threaded through the arena by handles.
// Every operation is O(1) expected. It is not safe for concurrent use;
// the owning cache serializes access.
type index[K comparable, V any] struct {
	m     map[K]handle
	slots []slot[K, V] // slots[sentinel] is the ring head
	free  []handle
}

func newIndex[K comparable, V any](capacity int) *index[K, V] {
	ix := &index[K, V]{
		m:     make(map[K]handle, capacity),
		slots: make([]slot[K, V], 1, capacity+1),
	}
	ix.slots[sentinel].prev = sentinel
	ix.slots[sentinel].next = sentinel
	return ix
}

// len returns the number of resident keys.
func (ix *index[K, V]) len() int { return len(ix.m) }

// lookup returns the handle for k.
func (ix *index[K, V]) lookup(k K) (handle, bool) {
	h, ok := ix.m[k]
	return h, ok
}

// at returns the slot behind h. The pointer is invalidated by the next
// insertFront, so callers must not hold it across inserts.
func (ix *index[K, V]) at(h handle) *slot[K, V] { return &ix.slots[h] }

// insertFront adds k at the MRU position. It reports false, and changes
// nothing, if k is already present.
func (ix *index[K, V]) insertFront(k K, v V, exp int64, hasExp bool) bool {
	if _, ok := ix.m[k]; ok {
		return false
	}
	var h handle
	if n := len(ix.free); n > 0 {
		h = ix.free[n-1]
		ix.free = ix.free[:n-1]
	} else {
		ix.slots = append(ix.slots, slot[K, V]{})
		h = handle(len(ix.slots) - 1)
	}
	s := &ix.slots[h]
	s.key, s.val, s.exp, s.hasExp = k, v, exp, hasExp
	ix.link(h)
	ix.m[k] = h
	return true
}

// touch promotes k to MRU without changing its value.
func (ix *index[K, V]) touch(k K) bool {
	h, ok := ix.m[k]
	if !ok {
		return false
	}
	ix.moveToFront(h)
	return true
}

// remove detaches k and recycles its slot.
func (ix *index[K, V]) remove(k K) bool {
	h, ok := ix.m[k]
	if !ok {
		return false
	}
	ix.removeAt(h)
	return true
}

// leastRecent returns the key at the LRU end.
func (ix *index[K, V]) leastRecent() (K, bool) {
	h := ix.slots[sentinel].prev
	if h == sentinel {
		var zero K
		return zero, false
	}
	return ix.slots[h].key, true
}

// back returns the LRU handle, or sentinel when empty.
func (ix *index[K, V]) back() handle { return ix.slots[sentinel].prev }

func (ix *index[K, V]) moveToFront(h handle) {
	if ix.slots[sentinel].next == h {
		return
	}
	ix.unlink(h)
	ix.link(h)
}

// removeAt unlinks h, drops it from the map and zeroes the slot so the
// arena does not retain the key or value.
func (ix *index[K, V]) removeAt(h handle) {
	ix.unlink(h)
	delete(ix.m, ix.slots[h].key)
	ix.slots[h] = slot[K, V]{}
	ix.free = append(ix.free, h)
}

// reset drops all entries but keeps the arena's backing storage.
func (ix *index[K, V]) reset() {
	clear(ix.m)
	clear(ix.slots)
	ix.slots = ix.slots[:1]
	ix.free = ix.free[:0]
	ix.slots[sentinel].prev = sentinel
	ix.slots[sentinel].next = sentinel
}

// eachMRU walks entries from MRU to LRU. fn must not mutate the index.
func (ix *index[K, V]) eachMRU(fn func(h handle, s *slot[K, V])) {
	for h := ix.slots[sentinel].next; h != sentinel; h = ix.slots[h].next {
		fn(h, &ix.slots[h])
	}
}

// sweep walks entries from LRU to MRU and removes those for which drop
// returns true. It returns the number removed.
func (ix *index[K, V]) sweep(drop func(s *slot[K, V]) bool) int {
	n := 0
	for h := ix.slots[sentinel].prev; h != sentinel; {
		prev := ix.slots[h].prev
		if drop(&ix.slots[h]) {
			ix.removeAt(h)
			n++
		}
		h = prev
	}
	return n
}

// link inserts h right after the sentinel.
func (ix *index[K, V]) link(h handle) {
	head := &ix.slots[sentinel]
	first := head.next
	ix.slots[h].prev = sentinel
	ix.slots[h].next = first
	ix.slots[first].prev = h
	head.next = h
}

func (ix *index[K, V]) unlink(h handle) {
	s := &ix.slots[h]
	ix.slots[s.prev].next = s.next
	ix.slots[s.next].prev = s.prev
	s.prev, s.next = sentinel, sentinel
}
