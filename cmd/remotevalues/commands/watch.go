package commands

import (
	"context"

	"git.home.luguber.info/inful/remotevalues/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Source   string `arg:"" name:"source" help:"Source directory" default:"docs" type:"path"`
	Output   string `short:"o" help:"Output directory" default:"./build" type:"path"`
	Format   string `short:"f" help:"Override build.format (markdown|html)"`
	Debounce string `help:"Quiet period before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if err := applyFormat(cfg, w.Format); err != nil {
		return err
	}
	debounce, err := parseDuration("--debounce", w.Debounce)
	if err != nil {
		return err
	}

	builder := newBuilder(cfg)
	rebuild := func(ctx context.Context) error {
		res, err := builder.Build(ctx, w.Source, w.Output)
		if err != nil {
			return err
		}
		printSummary(g, res)
		return nil
	}
	if err := rebuild(ctx); err != nil {
		return err
	}

	return watch.New(w.Source, rebuild,
		watch.WithDebounce(debounce),
		watch.WithIgnore(w.Output)).Run(ctx)
}
