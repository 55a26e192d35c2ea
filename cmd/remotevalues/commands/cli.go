// Package commands implements the remotevalues command line.
package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/observability"
)

// DefaultConfigPath is used when --config is not given. A missing default file means defaults.
const DefaultConfigPath = "remotevalues.yaml"

// Global carries process-wide state into subcommands.
type Global struct {
	Stdout io.Writer
	Stdin  io.Reader
	Stderr io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"remotevalues.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Resolve remote values across a source tree"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever the source tree changes"`
	Resolve ResolveCmd `cmd:"" help:"Resolve remote values in one Markdown file"`
	Render  RenderCmd  `cmd:"" help:"Render one Markdown file to HTML with remote values resolved"`
	Values  ValuesCmd  `cmd:"" help:"Resolve the configured named values and print them as JSON"`
	Serve   ServeCmd   `cmd:"" help:"Serve the resolution API over HTTP"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply installs a bootstrap logger until the configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(observability.NewContextHandler(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))))
	return nil
}

// LoadConfig loads the configuration and installs the configured logger.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(observability.NewLogger(g.stderr(), cfg.Logging, c.Verbose))
	return cfg, nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == DefaultConfigPath {
		if _, err := os.Stat(c.Config); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No configuration file; using defaults", "path", c.Config)
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "load config").
			WithContext("path", c.Config).Build()
	}
	return cfg, nil
}

// NewResolver builds the fetch stack from configuration.
func NewResolver(cfg *config.Config, rec metrics.Recorder) *fetch.Resolver {
	return fetch.NewResolver(
		fetch.NewFetcher(cfg.Fetch, fetch.WithFetchRecorder(rec)),
		fetch.WithConcurrency(cfg.Fetch.Concurrency),
		fetch.WithRecorder(rec))
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g == nil || g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

func (g *Global) stdin() io.Reader {
	if g == nil || g.Stdin == nil {
		return os.Stdin
	}
	return g.Stdin
}
