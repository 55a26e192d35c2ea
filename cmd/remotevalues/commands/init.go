package commands

import (
	"fmt"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "init failed").
			WithContext("path", root.Config).Build()
	}
	_, _ = fmt.Fprintf(g.stdout(), "Wrote configuration to %s\n", root.Config)
	return nil
}
