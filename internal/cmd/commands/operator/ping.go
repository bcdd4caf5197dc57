package operator

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
	"github.com/hashicorp-forge/mongobridge/internal/config"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// pingTimeout bounds a single ping attempt.
const pingTimeout = 10 * time.Second

type PingCommand struct {
	*base.Command

	flagConfig   string
	flagMongoURI string
	flagWait     time.Duration

	// fs and lookupEnv are replaced in tests.
	fs        afero.Fs
	lookupEnv func(string) (string, bool)
}

func (c *PingCommand) Synopsis() string {
	return "Check that the MongoDB backend is reachable"
}

func (c *PingCommand) Help() string {
	return `Usage: mongobridge operator ping [options]

  Ping the configured MongoDB deployment. With -wait, retry with exponential
  backoff until the deployment answers or the wait time elapses.` +
		c.Flags().Help()
}

func (c *PingCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("ping", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to an HCL config file.",
	)
	f.StringVar(
		&c.flagMongoURI, "mongo-uri", "",
		fmt.Sprintf("MongoDB connection string. Overrides %s.", config.EnvMongoURI),
	)
	f.DurationVar(
		&c.flagWait, "wait", 0,
		"Keep retrying for up to this long before giving up.",
	)

	return f
}

func (c *PingCommand) Run(args []string) int {
	logger, ui := c.Log, c.UI

	if err := c.Flags().Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.lookupEnv == nil {
		c.lookupEnv = os.LookupEnv
	}

	cfg, err := config.Load(c.fs, c.flagConfig)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	if err := cfg.ApplyEnv(c.lookupEnv); err != nil {
		ui.Error(err.Error())
		return 1
	}
	if c.flagMongoURI != "" {
		cfg.Mongo.URI = c.flagMongoURI
	}
	cfg.ApplyDefaults()

	connector := mongodb.NewConnector(mongodb.Config{
		URI:     cfg.Mongo.URI,
		AppName: cfg.Mongo.AppName,
	}, logger.Named("mongodb"))
	defer connector.Close(context.Background())
	backend := mongodb.NewGateway(connector, logger.Named("mongodb"))

	ctx := context.Background()
	ping := func() error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return backend.Ping(ctx)
	}

	if c.flagWait > 0 {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = c.flagWait
		err = backoff.RetryNotify(ping, backoff.WithContext(b, ctx),
			func(err error, next time.Duration) {
				logger.Warn("ping failed, retrying", "error", err, "backoff", next)
			})
	} else {
		err = ping()
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error pinging %s: %v", config.RedactURI(cfg.Mongo.URI), err))
		return 1
	}

	ui.Output(fmt.Sprintf("MongoDB at %s is reachable", config.RedactURI(cfg.Mongo.URI)))
	return 0
}
