package version

import (
	"fmt"

	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
	"github.com/hashicorp-forge/mongobridge/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: mongobridge version

  Print the version of mongobridge.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(fmt.Sprintf("mongobridge v%s", version.Version))
	return 0
}
