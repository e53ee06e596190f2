package cache

// handle addresses a slot in the index arena. Handles are stable for the
// lifetime of an entry and recycled through the free list after removal.
type handle int32

// sentinel is the arena slot that closes the ring: its next is the MRU
// entry and its prev is the LRU entry. It never holds a key.
const sentinel handle = 0

// slot is one arena cell: key/value, expiry, and the recency links.
type slot[K comparable, V any] struct {
	key K
	val V

	// Absolute expiration deadline in UnixNano, valid only when hasExp.
	exp    int64
	hasExp bool

	// Links into the recency ring (toward MRU is prev, toward LRU is next).
	prev handle
	next handle
}

// expiredAt reports whether the slot's deadline has passed at now.
// The deadline instant itself is still valid.
func (s *slot[K, V]) expiredAt(now int64) bool {
	return s.hasExp && now > s.exp
}
