package cache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// A mixed workload of concurrent single-item and batch calls on random keys.
// Should pass under `-race` without detector reports, and the capacity
// bound must hold throughout.
func TestRace_Mixed(t *testing.T) {
	const capacity = 1_024
	c := newTest(t, Options[string, []byte]{Capacity: capacity})

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 8_192
	deadline := time.Now().Add(time.Second)

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*9973))
			key := func() string { return "k:" + strconv.Itoa(r.Intn(keyspace)) }
			for time.Now().Before(deadline) {
				switch n := r.Intn(100); {
				case n < 5:
					c.Delete(key())
				case n < 10:
					_ = c.SetWithTTL(key(), []byte("x"), time.Duration(1+r.Intn(5))*time.Millisecond)
				case n < 20:
					_ = c.Set(key(), []byte("x"))
				case n < 23:
					c.SetMultiple([]Entry[string, []byte]{{Key: key(), Value: []byte("y")}, {Key: key(), Value: []byte("z")}})
				case n < 26:
					c.GetMultiple([]string{key(), key(), key()})
				case n < 27:
					c.Cleanup()
				case n < 28:
					c.Keys()
				case n < 30:
					c.Has(key())
				default:
					c.Get(key())
				}
				if l := c.Len(); l > capacity {
					t.Errorf("Len %d exceeds capacity", l)
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	st := c.Stats()
	if st.Size > capacity {
		t.Fatalf("final size %d exceeds capacity", st.Size)
	}
}

// One hundred goroutines call GetOrLoad on the same key concurrently.
// The Loader should run at most once (singleflight coalescing).
func TestRace_GetOrLoad(t *testing.T) {
	var calls int64

	c := newTest(t, Options[string, string]{
		Capacity: 1024,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(2 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})

	const goroutines = 100
	key := "same-key"

	start := make(chan struct{})
	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			<-start
			v, err := c.GetOrLoad(context.Background(), key)
			if err != nil {
				t.Errorf("GetOrLoad error: %v", err)
				return nil
			}
			if v != "v:"+key {
				t.Errorf("unexpected value: %q", v)
			}
			return nil
		})
	}

	close(start)
	_ = g.Wait()

	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("loader should run at most once, got %d", got)
	}
}
