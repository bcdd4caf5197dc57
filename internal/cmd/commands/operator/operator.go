package operator

import (
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Run maintenance tasks against the gateway's backend"
}

func (c *Command) Help() string {
	return `Usage: mongobridge operator <subcommand> [options] [args]

  Maintenance tasks for a mongobridge deployment.

  Check that the configured MongoDB deployment answers, waiting up to a minute:

      $ mongobridge operator ping -wait=1m

  Generate an API key to put in API_KEY:

      $ mongobridge operator generate-key`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
