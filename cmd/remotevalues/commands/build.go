package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/remotevalues/internal/build"
	"git.home.luguber.info/inful/remotevalues/internal/config"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source string `arg:"" name:"source" help:"Source directory" default:"docs" type:"path"`
	Output string `short:"o" help:"Output directory" default:"./build" type:"path"`
	Format string `short:"f" help:"Override build.format (markdown|html)"`
}

func (b *BuildCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if err := applyFormat(cfg, b.Format); err != nil {
		return err
	}
	res, err := newBuilder(cfg).Build(ctx, b.Source, b.Output)
	if err != nil {
		return err
	}
	printSummary(g, res)
	return nil
}

func applyFormat(cfg *config.Config, raw string) error {
	if raw == "" {
		return nil
	}
	f := config.NormalizeOutputFormat(raw)
	if f == "" {
		return ferrors.ValidationError(fmt.Sprintf("invalid --format %q (expected markdown or html)", raw)).Build()
	}
	cfg.Build.Format = f
	return nil
}

func newBuilder(cfg *config.Config) *build.Builder {
	rec := metrics.NoopRecorder{}
	return build.New(cfg.Build, NewResolver(cfg, rec), build.WithRecorder(rec))
}

func printSummary(g *Global, res *build.Result) {
	_, _ = fmt.Fprintf(g.stdout(), "%d documents (%d written, %d unchanged, %d skipped), %d assets, %d placeholders in %s\n",
		len(res.Documents),
		res.Count(metrics.DocumentWritten),
		res.Count(metrics.DocumentUnchanged),
		res.Count(metrics.DocumentSkipped),
		res.Assets,
		res.Placeholders(),
		res.Duration.Round(time.Millisecond))
}
