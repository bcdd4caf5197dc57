package operator

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
	"github.com/hashicorp-forge/mongobridge/internal/config"
)

type GenerateKeyCommand struct {
	*base.Command
}

func (c *GenerateKeyCommand) Synopsis() string {
	return "Generate a random API key"
}

func (c *GenerateKeyCommand) Help() string {
	return `Usage: mongobridge operator generate-key

  Print a new random API key suitable for the API_KEY environment variable.`
}

func (c *GenerateKeyCommand) Flags() *base.FlagSet {
	return base.NewFlagSet(flag.NewFlagSet("generate-key", flag.ContinueOnError))
}

func (c *GenerateKeyCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	key, err := config.GenerateAPIKey()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	c.UI.Output(key)
	return 0
}
