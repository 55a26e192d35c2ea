package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/remotevalues/cmd/remotevalues/commands"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("remotevalues"),
		kong.Description("Resolve remote: placeholders in Markdown documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := parser.Run(&commands.Global{}, cli)
	stop()
	os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err))
}
