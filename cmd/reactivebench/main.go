// Command reactivebench measures how the reactive package's propagation
// cost scales with the width and depth of a dependency chain, the same
// w-by-h grid cmd/benchmark used to compare alien/rocket/dumbdumb against
// each other. Here there is only one core to measure, so the grid instead
// sweeps eager (Sync) trackers against lazy (memoized) ones.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reactivelabs/reactivecore/reactive"
)

var (
	widths = []int{1, 10, 100, 1000}
	depths = []int{1, 10, 100, 1000}
	iters  = flag.Int("iters", 100, "propagation samples per grid cell")
	lazy   = flag.Bool("lazy", false, "benchmark lazy (memoized) chains instead of eager sync chains")
)

func main() {
	flag.Parse()

	log.Printf("warming up (%s cells)", humanize.Comma(int64(len(widths)*len(depths))))

	if *lazy {
		benchmarkLazyChains(true)
	} else {
		benchmarkEagerChains(true)
	}
}

// benchmarkEagerChains builds, for each (width, depth) cell, `width`
// groups of `depth` Sync trackers, all reading one shared ReactiveMap
// source key, then times how long each source write takes to reach every
// one of them.
func benchmarkEagerChains(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("reactive: eager (Sync) propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, d := range depths {
			rs := reactive.New(reactive.DefaultConfig())
			source := reactive.NewReactiveMap(rs, reactive.KV{Key: "n", Value: 0})
			reactive.DefineReactive(rs, source, "n", 0, nil, false)

			for i := 0; i < w; i++ {
				chainDepth(rs, source, d)
			}

			tach := tachymeter.New(&tachymeter.Config{Size: *iters})
			for i := 0; i < *iters; i++ {
				start := time.Now()
				v, _ := source.Get("n")
				source.Set("n", v.(int)+1)
				rs.FlushSync()
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d x %d", w, d),
				calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max,
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// chainDepth builds depth Sync trackers, each reading source's "n" key
// directly; the trackers do not read one another.
func chainDepth(rs *reactive.ReactiveSystem, source *reactive.ReactiveMap, depth int) {
	for j := 0; j < depth; j++ {
		_, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
			v, _ := source.Get("n")
			return v, nil
		}), func(newValue, oldValue any) error {
			return nil
		}, reactive.Options{Sync: true}, false)
		if err != nil {
			log.Fatal(err)
		}
	}
}

// benchmarkLazyChains builds `width` lazy trackers per cell, each depending
// on the shared source, and times how long re-evaluating a stale lazy
// tracker's Value takes once its dependency has changed.
func benchmarkLazyChains(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("reactive: lazy (memoized) re-evaluation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, d := range depths {
			rs := reactive.New(reactive.DefaultConfig())
			source := reactive.NewReactiveMap(rs, reactive.KV{Key: "n", Value: 0})
			reactive.DefineReactive(rs, source, "n", 0, nil, false)

			trackers := make([]*reactive.Tracker, 0, w)
			for i := 0; i < w; i++ {
				t, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
					sum := 0
					for k := 0; k < d; k++ {
						v, _ := source.Get("n")
						sum += v.(int)
					}
					return sum, nil
				}), nil, reactive.Options{Lazy: true}, false)
				if err != nil {
					log.Fatal(err)
				}
				trackers = append(trackers, t)
			}

			tach := tachymeter.New(&tachymeter.Config{Size: *iters})
			for i := 0; i < *iters; i++ {
				v, _ := source.Get("n")
				source.Set("n", v.(int)+1)

				start := time.Now()
				for _, t := range trackers {
					if _, err := t.Value(); err != nil {
						log.Fatal(err)
					}
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d x %d", w, d),
				calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max,
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
