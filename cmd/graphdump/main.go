package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/delaneyj/propgraph/pkg/graphviz"
	"github.com/delaneyj/propgraph/property"
	"github.com/urfave/cli/v3"
)

const (
	outKey   = "out"
	dirtyKey = "dirty"
	cycleKey = "cycle"
)

func main() {
	cmd := &cli.Command{
		Name:  "graphdump",
		Usage: "Build a small component and print its dependency graph as DOT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Write the graph to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  dirtyKey,
				Usage: "Write a source after evaluating so the graph shows dirty cells",
			},
			&cli.BoolFlag{
				Name:  cycleKey,
				Usage: "Add two bindings that read each other",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	rt := property.NewRuntime(property.WithLogger(logger))

	inst := rt.NewInstance("demo")
	x := property.New(inst, 1, property.Named("x"))
	y := property.New(inst, 2, property.Named("y"))
	z := property.New(inst, 0, property.Named("z"))
	z.SetBinding(func() int {
		return x.Get() + y.Get()
	})

	// a text field edited in both directions, kept in sync with x
	text := property.New(inst, "", property.Named("text"))
	property.LinkTwoWayMap(x, text, strconv.Itoa, func(old int, v string) int {
		n, err := strconv.Atoi(v)
		if err != nil {
			return old
		}
		return n
	})

	roots := []property.Inspectable{z, text}
	if cmd.Bool(cycleKey) {
		a := property.New(inst, 0, property.Named("a"))
		b := property.New(inst, 0, property.Named("b"))
		a.SetBinding(func() int { return b.Get() + z.Get() })
		b.SetBinding(func() int { return a.Get() })
		if _, err := a.TryGet(); err != nil {
			logger.Info("cycle detected", "err", err)
		}
		roots = append(roots, a)
	}

	z.Get()
	text.Get()
	if cmd.Bool(dirtyKey) {
		y.Set(y.GetUntracked() + 1)
	}

	var w io.Writer = os.Stdout
	if path := cmd.String(outKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	graphviz.Render(w, inst.Name(), property.Snapshot(roots...))
	return nil
}
