// Command reactivectl exercises and inspects the reactive package from the
// command line: it builds a small dependency graph, mutates it, and prints
// the resulting scheduler/tracker state. Its subcommand structure follows
// cmd/codegen's use of urfave/cli/v3.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/reactivelabs/reactivecore/reactive"
)

const (
	layersKey     = "layers"
	sourcesKey    = "sources"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "reactivectl",
		Usage: "exercise and inspect the reactive package's dependency graph",
		Commands: []*cli.Command{
			runCommand(),
			inspectCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "build a layered dependency graph, mutate its sources, and report update counts",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: layersKey, Usage: "number of derived layers", Value: 4},
			&cli.UintFlag{Name: sourcesKey, Usage: "number of root sources", Value: 3},
			&cli.UintFlag{Name: iterationsKey, Usage: "number of source mutations", Value: 1000},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	layers := int(cmd.Uint(layersKey))
	sources := int(cmd.Uint(sourcesKey))
	iterations := int(cmd.Uint(iterationsKey))

	rs := reactive.New(reactive.DefaultConfig())
	root := reactive.NewReactiveMap(rs)
	for i := 0; i < sources; i++ {
		key := fmt.Sprintf("s%d", i)
		reactive.DefineReactive(rs, root, key, 0, nil, false)
	}

	runCount := 0
	for l := 0; l < layers; l++ {
		if _, err := reactive.NewTracker(rs, nil, reactive.Getter(func() (any, error) {
			sum := 0
			for i := 0; i < sources; i++ {
				v, _ := root.Get(fmt.Sprintf("s%d", i))
				sum += v.(int)
			}
			return sum, nil
		}), func(newValue, oldValue any) error {
			runCount++
			return nil
		}, reactive.Options{Sync: true}, false); err != nil {
			return err
		}
	}

	for i := 0; i < iterations; i++ {
		key := fmt.Sprintf("s%d", i%sources)
		v, _ := root.Get(key)
		if err := root.Set(key, v.(int)+1); err != nil {
			return err
		}
	}
	rs.FlushSync()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"layers", "sources", "iterations", "layer runs"})
	table.Append([]string{
		humanize.Comma(int64(layers)),
		humanize.Comma(int64(sources)),
		humanize.Comma(int64(iterations)),
		humanize.Comma(int64(runCount)),
	})
	table.Render()
	return nil
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "build a scope tree, dispose it, and report whether the child scope's cleanup ran",
		Action: inspectAction,
	}
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	rs := reactive.New(reactive.DefaultConfig())
	root := reactive.NewScope(rs, nil)
	child := reactive.NewScope(rs, root)

	source := reactive.NewReactiveMap(rs)
	reactive.DefineReactive(rs, source, "n", 0, nil, false)

	disposed := false
	if _, err := reactive.NewTracker(rs, child, reactive.Getter(func() (any, error) {
		v, _ := source.Get("n")
		return v, nil
	}), func(newValue, oldValue any) error { return nil }, reactive.Options{Sync: true}, false); err != nil {
		return err
	}
	child.OnCleanup(func() { disposed = true })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"scope", "disposed before", "disposed after"})
	before := disposed
	root.Dispose()
	table.Append([]string{"child", fmt.Sprint(before), fmt.Sprint(disposed)})
	table.Render()
	return nil
}
