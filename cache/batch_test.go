package cache

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

// Scenario: k2 carries a 50ms TTL and is gone by t=100ms; k4 never existed.
func TestBatch_SetThenGetMultiple(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := newTest(t, Options[string, string]{Capacity: 10, Clock: clk})

	set := c.SetMultiple([]Entry[string, string]{
		{Key: "k1", Value: "v1"},
		{Key: "k2", Value: "v2", TTL: TTL(50 * time.Millisecond)},
		{Key: "k3", Value: "v3"},
	})
	if want := []string{"k1", "k2", "k3"}; !slices.Equal(set.Success, want) {
		t.Fatalf("Success: want %v, got %v", want, set.Success)
	}
	if len(set.Failed) != 0 || set.Total != 3 {
		t.Fatalf("SetMultiple: %+v", set)
	}

	clk.add(100 * time.Millisecond)
	got := c.GetMultiple([]string{"k1", "k2", "k3", "k4"})
	if want := []KeyValue[string, string]{{Key: "k1", Value: "v1"}, {Key: "k3", Value: "v3"}}; !slices.Equal(got.Found, want) {
		t.Fatalf("Found: want %v, got %v", want, got.Found)
	}
	if want := []string{"k2", "k4"}; !slices.Equal(got.NotFound, want) {
		t.Fatalf("NotFound: want %v, got %v", want, got.NotFound)
	}
	if got.Total != 4 {
		t.Fatalf("Total: want 4, got %d", got.Total)
	}

	if st := c.Stats(); st.Hits != 2 || st.Misses != 2 {
		t.Fatalf("want 2 hits / 2 misses, got %+v", st)
	}
}

// A bad entry is reported on its own; the rest of the batch still lands.
func TestBatch_SetMultiplePartialFailure(t *testing.T) {
	t.Parallel()

	c := newTest(t, Options[string, int]{Capacity: 10})
	res := c.SetMultiple([]Entry[string, int]{
		{Key: "a", Value: 1},
		{Key: "bad", Value: 2, TTL: TTL(-time.Second)},
		{Key: "c", Value: 3},
	})

	if want := []string{"a", "c"}; !slices.Equal(res.Success, want) {
		t.Fatalf("Success: want %v, got %v", want, res.Success)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("Failed: want 1 entry, got %+v", res.Failed)
	}
	f := res.Failed[0]
	if f.Key != "bad" || !errors.Is(f.Err, ErrInvalidTTL) || !strings.Contains(f.Reason, "ttl must be >= 0") {
		t.Fatalf("unexpected failure: %+v", f)
	}
	if c.Has("bad") || !c.Has("c") {
		t.Fatalf("keys after partial failure: %v", c.Keys())
	}
}

func TestBatch_SetMultipleAfterClose(t *testing.T) {
	t.Parallel()

	c := newTest(t, Options[string, int]{Capacity: 10})
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	res := c.SetMultiple([]Entry[string, int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}})
	if len(res.Success) != 0 || len(res.Failed) != 2 {
		t.Fatalf("SetMultiple after Close: %+v", res)
	}
	for _, f := range res.Failed {
		if !errors.Is(f.Err, ErrClosed) {
			t.Fatalf("%s: want ErrClosed, got %v", f.Key, f.Err)
		}
	}
}

// Evictions accrue mid-batch exactly as with single Set calls.
func TestBatch_SetMultipleEvictsAlongTheWay(t *testing.T) {
	t.Parallel()

	c := newTest(t, Options[string, int]{Capacity: 2})
	res := c.SetMultiple([]Entry[string, int]{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
		{Key: "c", Value: 3},
		{Key: "d", Value: 4},
	})

	if len(res.Success) != 4 {
		t.Fatalf("Success: %v", res.Success)
	}
	if got, want := c.Keys(), []string{"d", "c"}; !slices.Equal(got, want) {
		t.Fatalf("Keys: want %v, got %v", want, got)
	}
	if got := c.Stats().Evictions; got != 2 {
		t.Fatalf("Evictions: want 2, got %d", got)
	}
}

// Duplicate keys are processed once per occurrence.
func TestBatch_NoDeduplication(t *testing.T) {
	t.Parallel()

	c := newTest(t, Options[string, int]{Capacity: 4})
	set := c.SetMultiple([]Entry[string, int]{{Key: "a", Value: 1}, {Key: "a", Value: 2}})
	if want := []string{"a", "a"}; !slices.Equal(set.Success, want) {
		t.Fatalf("Success: want %v, got %v", want, set.Success)
	}
	if c.Len() != 1 {
		t.Fatalf("Len: want 1, got %d", c.Len())
	}

	got := c.GetMultiple([]string{"a", "a"})
	if want := []KeyValue[string, int]{{Key: "a", Value: 2}, {Key: "a", Value: 2}}; !slices.Equal(got.Found, want) {
		t.Fatalf("Found: want %v, got %v", want, got.Found)
	}
	if h := c.Stats().Hits; h != 2 {
		t.Fatalf("Hits: want 2, got %d", h)
	}

	del := c.DeleteMultiple([]string{"a", "a", "zz"})
	if !slices.Equal(del.Deleted, []string{"a"}) || !slices.Equal(del.NotFound, []string{"a", "zz"}) || del.Total != 3 {
		t.Fatalf("DeleteMultiple: %+v", del)
	}
}

// Empty batches return empty, non-nil slices.
func TestBatch_Empty(t *testing.T) {
	t.Parallel()

	c := newTest(t, Options[string, int]{Capacity: 4})

	set := c.SetMultiple(nil)
	if set.Success == nil || set.Failed == nil || set.Total != 0 {
		t.Fatalf("SetMultiple(nil): %#v", set)
	}

	get := c.GetMultiple(nil)
	if get.Found == nil || get.NotFound == nil {
		t.Fatalf("GetMultiple(nil): %#v", get)
	}

	del := c.DeleteMultiple([]string{})
	if del.Deleted == nil || del.NotFound == nil || del.Total != 0 {
		t.Fatalf("DeleteMultiple(empty): %#v", del)
	}
}
