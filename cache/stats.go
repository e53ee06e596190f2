package cache

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hitRate"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	Evictions uint64  `json:"evictions"`
}

// hitRate returns hits/(hits+misses), or 0 before the first lookup.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
