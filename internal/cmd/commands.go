package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
	"github.com/hashicorp-forge/mongobridge/internal/cmd/commands/operator"
	"github.com/hashicorp-forge/mongobridge/internal/cmd/commands/server"
	"github.com/hashicorp-forge/mongobridge/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"server": func() (cli.Command, error) {
			return &server.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator ping": func() (cli.Command, error) {
			return &operator.PingCommand{Command: b}, nil
		},
		"operator generate-key": func() (cli.Command, error) {
			return &operator.GenerateKeyCommand{Command: b}, nil
		},
	}
}
