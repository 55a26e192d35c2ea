package commands

import (
	"context"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Override server.addr"`
}

func (s *ServeCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	srv, err := server.New(cfg, NewResolver(cfg, rec),
		server.WithRegistry(reg),
		server.WithRecorder(rec))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
