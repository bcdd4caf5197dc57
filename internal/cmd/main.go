package cmd

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/mongobridge/internal/config"
	"github.com/hashicorp-forge/mongobridge/internal/version"
)

// defaultCommand runs when mongobridge is invoked without a subcommand, so
// the bare binary starts the gateway.
const defaultCommand = "server"

// aliases maps single-argument shorthands onto subcommands.
var aliases = map[string]string{
	"-v":       "version",
	"-version": "version",
}

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	name := filepath.Base(args[0])

	log := hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(os.Getenv(config.EnvLogLevel)),
	})

	initCommands(log, newUI())

	c := &cli.CLI{
		Name:     name,
		Args:     subcommandArgs(args[1:]),
		Version:  version.Version,
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("error running command", "error", err)
		return 1
	}

	return exitCode
}

// subcommandArgs resolves aliases and the default subcommand.
func subcommandArgs(args []string) []string {
	switch {
	case len(args) == 0:
		return []string{defaultCommand}
	case len(args) == 1 && aliases[args[0]] != "":
		return []string{aliases[args[0]]}
	default:
		return args
	}
}

func newUI() cli.Ui {
	return &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
}
