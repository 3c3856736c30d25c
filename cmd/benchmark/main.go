package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/propgraph/animation"
	"github.com/delaneyj/propgraph/property"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey      = "iters"
	cpuProfileKey = "cpuprofile"
	quietKey      = "quiet"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write propagation through chains of property bindings",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Writes measured per graph shape",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
			&cli.BoolFlag{
				Name:  quietKey,
				Usage: "Run without printing the result tables",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100, 1_000}
)

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Int(itersKey))
	render := !cmd.Bool(quietKey)

	log.Printf("warming up")
	benchmarkPropagate(iters, false)

	benchmarkPropagate(iters, render)
	benchmarkPull(iters, render)
	benchmarkAnimation(iters, render)
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "evaluations", "marks"})
	return tbl
}

func appendResult(tbl table.Writer, name string, tach *tachymeter.Tachymeter, stats property.Stats) {
	calc := tach.Calc()
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		stats.Evaluations,
		stats.Marks,
	})
}

// benchmarkPropagate builds w chains of h bindings hanging off one source,
// each chain watched by a tracker that re-renders as soon as it is dirtied.
// Every measured write therefore marks and re-evaluates the whole graph.
func benchmarkPropagate(iters int, shouldRender bool) {
	tbl := newTable("Propagate and re-render")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := property.NewRuntime(property.WithErrorHandler(func(err error) {
				log.Panic(err)
			}))
			src := property.New(rt, 1)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					last = property.New(rt, 0)
					last.SetBinding(func() int {
						return prev.Get() + 1
					})
				}

				var tr *property.Tracker
				tr = property.NewTracker(rt, func() {
					tr.EvaluateAsRoot(func() {
						last.Get()
					})
				})
				tr.EvaluateAsRoot(func() {
					last.Get()
				})
			}

			before := rt.Stats()
			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.GetUntracked() + 1)
				tach.AddTime(time.Since(start))
			}
			after := rt.Stats()

			appendResult(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach, property.Stats{
				Evaluations: after.Evaluations - before.Evaluations,
				Marks:       after.Marks - before.Marks,
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkPull writes the source and reads only one leaf, so that the cost
// of marking the whole graph is paid but only one chain is evaluated.
func benchmarkPull(iters int, shouldRender bool) {
	tbl := newTable("Mark everything, pull one chain")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := property.NewRuntime(property.WithErrorHandler(func(err error) {
				log.Panic(err)
			}))
			src := property.New(rt, 1)
			leaves := make([]*property.Cell[int], w)
			for i := range leaves {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					last = property.New(rt, 0)
					last.SetBinding(func() int {
						return prev.Get() + 1
					})
				}
				last.Get()
				leaves[i] = last
			}

			before := rt.Stats()
			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.GetUntracked() + 1)
				leaves[i%len(leaves)].Get()
				tach.AddTime(time.Since(start))
			}
			after := rt.Stats()

			appendResult(tbl, fmt.Sprintf("pull: %d * %d", w, h), tach, property.Stats{
				Evaluations: after.Evaluations - before.Evaluations,
				Marks:       after.Marks - before.Marks,
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkAnimation animates n cells at once and measures one frame: moving
// the tick and reading every animated value.
func benchmarkAnimation(iters int, shouldRender bool) {
	tbl := newTable("Animation frames")

	for _, n := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		rt := property.NewRuntime(property.WithErrorHandler(func(err error) {
			log.Panic(err)
		}))
		start := time.Unix(0, 0)
		driver := animation.NewDriver(rt, start)
		cells := make([]*property.Cell[float64], n)
		for i := range cells {
			cells[i] = property.New(rt, 0.0)
			animation.SetAnimatedValue(cells[i], driver, float64(i), animation.Details{
				Duration:       time.Second,
				IterationCount: -1,
				Easing:         animation.EaseInOut,
			})
		}

		before := rt.Stats()
		for i := 0; i < iters; i++ {
			frameStart := time.Now()
			driver.AdvanceTime(start.Add(time.Duration(i+1) * 16 * time.Millisecond))
			for _, c := range cells {
				c.Get()
			}
			tach.AddTime(time.Since(frameStart))
		}
		after := rt.Stats()

		appendResult(tbl, fmt.Sprintf("animate: %d cells", n), tach, property.Stats{
			Evaluations: after.Evaluations - before.Evaluations,
			Marks:       after.Marks - before.Marks,
		})
	}

	if shouldRender {
		tbl.Render()
	}
}
