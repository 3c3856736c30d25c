package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/delaneyj/propgraph/property"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	repeatsKey = "repeats"
	onlyKey    = "only"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_dynamic",
		Usage: "Run layered graphs of static and dynamic bindings and report update rates",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  repeatsKey,
				Usage: "Timed runs per config, the fastest one is reported",
				Value: 5,
			},
			&cli.StringSliceFlag{
				Name:  onlyKey,
				Usage: "Only run the configs with these names",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var perfTestCfgs = []benchmarkTestConfig{
	{
		name:           "simple component",
		width:          10,
		staticFraction: 1,
		nSources:       2,
		totalLayers:    5,
		readFraction:   0.2,
		iterations:     600000,
	},
	{
		name:           "dynamic component",
		width:          10,
		totalLayers:    10,
		staticFraction: 0.75,
		nSources:       6,
		readFraction:   0.2,
		iterations:     15000,
	},
	{
		name:           "large web app",
		width:          1000,
		totalLayers:    12,
		staticFraction: 0.95,
		nSources:       4,
		readFraction:   1,
		iterations:     7000,
	},
	{
		name:           "wide dense",
		width:          1000,
		totalLayers:    5,
		staticFraction: 1,
		nSources:       25,
		readFraction:   1,
		iterations:     3000,
	},
	{
		name:           "deep",
		width:          5,
		totalLayers:    500,
		staticFraction: 1,
		nSources:       3,
		readFraction:   1,
		iterations:     500,
	},
	{
		name:           "very dynamic",
		width:          100,
		totalLayers:    15,
		staticFraction: 0.5,
		nSources:       6,
		readFraction:   1,
		iterations:     2000,
	},
}

type results struct {
	sum      int
	count    int64
	stats    property.Stats
	duration time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting dynamic graph benchmark, please wait...")
	defer log.Print("Finished dynamic graph benchmark")

	only := cmd.StringSlice(onlyKey)
	testRepeats := int(cmd.Int(repeatsKey))
	if testRepeats < 1 {
		return fmt.Errorf("--%s must be at least 1", repeatsKey)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "evaluations",
		"marks", "updateRate", "sum", "title",
	})

	for _, cfg := range perfTestCfgs {
		if len(only) > 0 && !slices.Contains(only, cfg.name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		rt := property.NewRuntime(property.WithErrorHandler(func(err error) {
			log.Panic(err)
		}))
		graph := benchmarkMakeGraph(rt, &benchmarkMakeGraphConfig{
			counter:        counter,
			width:          cfg.width,
			totalLayers:    cfg.totalLayers,
			nSources:       cfg.nSources,
			staticFraction: cfg.staticFraction,
		})

		runOnce := func() int {
			return benchmarkRunGraph(graph, cfg.iterations, cfg.readFraction)
		}
		// warm up
		runOnce()

		best := &results{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			*counter = 0
			before := rt.Stats()
			start := time.Now()
			sum := runOnce()
			duration := time.Since(start)
			after := rt.Stats()

			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
				best.stats = property.Stats{
					Evaluations: after.Evaluations - before.Evaluations,
					Marks:       after.Marks - before.Marks,
					Passes:      after.Passes - before.Passes,
				}
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(best.stats.Evaluations)),
			humanize.Comma(int64(best.stats.Marks)),
			humanize.Comma(int64(updateRate)),
			humanize.Comma(int64(best.sum)),
			cfg.title(),
		})
	}
	table.Render()
	return nil
}

type benchmarkTestConfig struct {
	name           string  // unique name, also used by --only
	width          int64   // width of dependency graph to construct
	totalLayers    int64   // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes that always read all of their sources
	nSources       int64   // number of sources each node reads
	readFraction   float64 // fraction of the last layer read in each iteration
	iterations     int64
}

func (cfg benchmarkTestConfig) title() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
	}
	return sb.String()
}

type benchmarkGraph struct {
	sources []*property.Cell[int]
	layers  [][]*property.Cell[int]
}

type benchmarkMakeGraphConfig struct {
	counter                      *int64
	width, totalLayers, nSources int64
	staticFraction               float64
}

func benchmarkMakeGraph(rt *property.Runtime, cfg *benchmarkMakeGraphConfig) *benchmarkGraph {
	sources := make([]*property.Cell[int], cfg.width)
	for i := range sources {
		sources[i] = property.New(rt, i, property.Named(fmt.Sprintf("source%d", i)))
	}

	random := rand.New(rand.NewSource(0))
	prevRow := sources
	layers := make([][]*property.Cell[int], cfg.totalLayers-1)
	for l := range layers {
		layers[l] = makeBenchmarkRow(rt, prevRow, cfg, random)
		prevRow = layers[l]
	}
	return &benchmarkGraph{sources: sources, layers: layers}
}

// Execute the graph by writing one of the sources and reading some or all of
// the leaves. Returns the sum of the leaves that were read.
func benchmarkRunGraph(graph *benchmarkGraph, iterations int64, readFraction float64) int {
	random := rand.New(rand.NewSource(0))
	leaves := graph.layers[len(graph.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - readFraction)))
	readLeaves := benchmarkRemoveElems(leaves, skipCount, random)

	for i := 0; i < int(iterations); i++ {
		sourceDex := i % len(graph.sources)
		graph.sources[sourceDex].Set(i + sourceDex)

		for _, leaf := range readLeaves {
			leaf.Get()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Get()
	}
	return sum
}

func benchmarkRemoveElems[T any](src []T, rmCount int, rand *rand.Rand) []T {
	copyWithRemovals := slices.Clone(src)
	for i := 0; i < rmCount; i++ {
		rmDex := rand.Intn(len(copyWithRemovals))
		copyWithRemovals[rmDex] = copyWithRemovals[len(copyWithRemovals)-1]
		copyWithRemovals = copyWithRemovals[:len(copyWithRemovals)-1]
	}
	return copyWithRemovals
}

func makeBenchmarkRow(rt *property.Runtime, sources []*property.Cell[int], cfg *benchmarkMakeGraphConfig, random *rand.Rand) []*property.Cell[int] {
	row := make([]*property.Cell[int], len(sources))

	for myDex := range sources {
		mySources := make([]*property.Cell[int], 0, cfg.nSources)
		for sourceDex := 0; sourceDex < int(cfg.nSources); sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		c := property.New(rt, 0)
		if random.Float64() < cfg.staticFraction {
			// static node, always reads every source
			c.SetBinding(func() int {
				*cfg.counter++
				sum := 0
				for _, source := range mySources {
					sum += source.Get()
				}
				return sum
			})
		} else {
			// dynamic node, skips one source depending on the first
			first := mySources[0]
			tail := mySources[1:]
			c.SetBinding(func() int {
				*cfg.counter++
				sum := first.Get()
				shouldDrop := sum&0x1 > 0
				dropDex := sum % len(tail)

				for i := 0; i < len(tail); i++ {
					if shouldDrop && i == dropDex {
						continue
					}
					sum += tail[i].Get()
				}
				return sum
			})
		}
		row[myDex] = c
	}

	return row
}
