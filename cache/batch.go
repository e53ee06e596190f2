package cache

import "time"

// Entry is one input item for SetMultiple. A nil TTL uses DefaultTTL.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	TTL   *time.Duration
}

// TTL returns a pointer to d, for filling Entry.TTL inline.
func TTL(d time.Duration) *time.Duration { return &d }

// SetFailure records why one SetMultiple entry was not stored.
type SetFailure[K comparable] struct {
	Key    K      `json:"key"`
	Reason string `json:"error"`
	Err    error  `json:"-"`
}

// SetResult reports SetMultiple outcomes in input order.
type SetResult[K comparable] struct {
	Success []K             `json:"success"`
	Failed  []SetFailure[K] `json:"failed"`
	Total   int             `json:"total"`
}

// KeyValue is a found pair in GetResult.
type KeyValue[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// GetResult reports GetMultiple outcomes in input order.
type GetResult[K comparable, V any] struct {
	Found    []KeyValue[K, V] `json:"found"`
	NotFound []K              `json:"notFound"`
	Total    int              `json:"total"`
}

// DeleteResult reports DeleteMultiple outcomes in input order.
type DeleteResult[K comparable] struct {
	Deleted  []K `json:"deleted"`
	NotFound []K `json:"notFound"`
	Total    int `json:"total"`
}

// Batch operations are plain sequences of single-item calls: the lock is
// taken per item, nothing is rolled back, and duplicate keys are processed
// once per occurrence.

// SetMultiple stores each entry in order; a failed entry does not stop the rest.
func (c *cache[K, V]) SetMultiple(entries []Entry[K, V]) SetResult[K] {
	res := SetResult[K]{
		Success: make([]K, 0, len(entries)),
		Failed:  make([]SetFailure[K], 0),
		Total:   len(entries),
	}
	for _, e := range entries {
		var err error
		if e.TTL != nil {
			err = c.SetWithTTL(e.Key, e.Value, *e.TTL)
		} else {
			err = c.Set(e.Key, e.Value)
		}
		if err != nil {
			res.Failed = append(res.Failed, SetFailure[K]{Key: e.Key, Reason: err.Error(), Err: err})
			continue
		}
		res.Success = append(res.Success, e.Key)
	}
	if n := len(res.Failed); n > 0 {
		c.log.Debug("batch set partial failure", "total", res.Total, "failed", n)
	}
	return res
}

// GetMultiple looks up each key in order.
func (c *cache[K, V]) GetMultiple(keys []K) GetResult[K, V] {
	res := GetResult[K, V]{
		Found:    make([]KeyValue[K, V], 0, len(keys)),
		NotFound: make([]K, 0),
		Total:    len(keys),
	}
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			res.Found = append(res.Found, KeyValue[K, V]{Key: k, Value: v})
		} else {
			res.NotFound = append(res.NotFound, k)
		}
	}
	return res
}

// DeleteMultiple deletes each key in order.
func (c *cache[K, V]) DeleteMultiple(keys []K) DeleteResult[K] {
	res := DeleteResult[K]{
		Deleted:  make([]K, 0, len(keys)),
		NotFound: make([]K, 0),
		Total:    len(keys),
	}
	for _, k := range keys {
		if c.Delete(k) {
			res.Deleted = append(res.Deleted, k)
		} else {
			res.NotFound = append(res.NotFound, k)
		}
	}
	return res
}
