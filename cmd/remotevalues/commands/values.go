package commands

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

// ValuesCmd implements the 'values' command.
type ValuesCmd struct {
	Compact bool `help:"Print compact JSON"`
}

func (v *ValuesCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	t := remotevalues.New(NewResolver(cfg, metrics.NoopRecorder{}))
	values, err := t.ResolveValues(ctx, cfg.Values)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(g.stdout())
	if !v.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(values)
}
