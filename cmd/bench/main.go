// Command bench runs a synthetic workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/lrucache/cache"
	pmet "github.com/IvanBrykalov/lrucache/metrics/prom"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		ttl      = flag.Duration("ttl", 0, "default TTL for writes (0 = none)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		batch    = flag.Int("batch", 0, "if > 0, issue reads and writes as batches of this size")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "lrucache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	c, err := cache.New(cache.Options[string, string]{
		Capacity:   *capacity,
		DefaultTTL: *ttl,
		Metrics:    metrics,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := range pl {
		k := "k:" + strconv.Itoa(i)
		_ = c.Set(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	batchN := *batch
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var ops uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range workersN {
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(w)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)
			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				read := int(localR.Int31n(100)) < readPctVal
				switch {
				case batchN > 0 && read:
					ks := make([]string, batchN)
					for i := range ks {
						ks[i] = keyByZipf()
					}
					c.GetMultiple(ks)
				case batchN > 0:
					es := make([]cache.Entry[string, string], batchN)
					for i := range es {
						es[i] = cache.Entry[string, string]{Key: keyByZipf(), Value: "v" + strconv.Itoa(localR.Int())}
					}
					c.SetMultiple(es)
				case read:
					c.Get(keyByZipf())
				default:
					_ = c.Set(keyByZipf(), "v"+strconv.Itoa(localR.Int()))
				}
				atomic.AddUint64(&ops, 1)
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	st := c.Stats()
	n := atomic.LoadUint64(&ops)
	fmt.Printf("cap=%d ttl=%v workers=%d keys=%d batch=%d dur=%v seed=%d\n",
		*capacity, *ttl, workersN, *keys, batchN, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)\n", n, float64(n)/elapsed.Seconds())
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n",
		st.Hits, st.Misses, st.HitRate*100, st.Evictions)
	fmt.Printf("size=%d/%d\n", st.Size, st.MaxSize)
}
