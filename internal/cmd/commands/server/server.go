package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/event"
	mongotrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/go.mongodb.org/mongo-driver/mongo"
	httptrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/net/http"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/hashicorp-forge/mongobridge/internal/api"
	"github.com/hashicorp-forge/mongobridge/internal/cmd/base"
	"github.com/hashicorp-forge/mongobridge/internal/config"
	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/internal/version"
	"github.com/hashicorp-forge/mongobridge/pkg/audit"
	"github.com/hashicorp-forge/mongobridge/pkg/extjson"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

type Command struct {
	*base.Command

	flagConfig   string
	flagMongoURI string
	flagHost     string
	flagPort     int
	flagTLS      bool
	flagCertFile string
	flagKeyFile  string
	flagLogLevel string

	// ShutdownCh stops the server when closed, in addition to SIGINT and
	// SIGTERM.
	ShutdownCh <-chan struct{}

	// fs and lookupEnv are replaced in tests.
	fs        afero.Fs
	lookupEnv func(string) (string, bool)
}

func (c *Command) Synopsis() string {
	return "Run the gateway server"
}

func (c *Command) Help() string {
	return `Usage: mongobridge server [options]

  Run the MongoDB HTTP gateway.

  Settings are read from command line flags, then environment variables
  (MONGO_URI, API_KEY, MONGOBRIDGE_HOST, MONGOBRIDGE_PORT,
  MONGOBRIDGE_LOG_LEVEL), then the optional HCL config file. When no API key
  is configured a random one is generated and printed once at startup.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("server", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "Path to an HCL config file.",
	)
	f.StringVar(
		&c.flagMongoURI, "mongo-uri", "",
		fmt.Sprintf("MongoDB connection string. Overrides %s.", config.EnvMongoURI),
	)
	f.StringVar(
		&c.flagHost, "host", config.DefaultHost,
		fmt.Sprintf("Bind `address`. Overrides %s.", config.EnvHost),
	)
	f.IntVar(
		&c.flagPort, "port", config.DefaultPort,
		fmt.Sprintf("Bind port. Overrides %s.", config.EnvPort),
	)
	f.BoolVar(
		&c.flagTLS, "ssl", false, "Serve HTTPS using -cert and -key.",
	)
	f.StringVar(
		&c.flagCertFile, "cert", config.DefaultCertFile,
		"TLS certificate `file`.",
	)
	f.StringVar(
		&c.flagKeyFile, "key", config.DefaultKeyFile,
		"TLS private key `file`.",
	)
	f.StringVar(
		&c.flagLogLevel, "log-level", "",
		fmt.Sprintf("Log level: trace, debug, info, warn or error. Overrides %s.",
			config.EnvLogLevel),
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	f := c.Flags()
	if err := f.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.lookupEnv == nil {
		c.lookupEnv = os.LookupEnv
	}

	cfg, err := c.loadConfig(f)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	logger.SetLevel(hclog.LevelFromString(cfg.LogLevel))

	codec, err := extjson.New(cfg.ExtendedJSON)
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	// Tracing.
	var monitor *event.CommandMonitor
	if cfg.Datadog.Enabled {
		opts := []tracer.StartOption{
			tracer.WithService(cfg.Datadog.Service),
			tracer.WithServiceVersion(version.Version),
		}
		if cfg.Datadog.Env != "" {
			opts = append(opts, tracer.WithEnv(cfg.Datadog.Env))
		}
		tracer.Start(opts...)
		defer tracer.Stop()

		monitor = mongotrace.NewMonitor(
			mongotrace.WithServiceName(cfg.Datadog.Service + "-mongodb"))
		logger.Info("datadog tracing enabled", "service", cfg.Datadog.Service)
	}

	// Backend. The client is created on the first request.
	connector := mongodb.NewConnector(mongodb.Config{
		URI:     cfg.Mongo.URI,
		AppName: cfg.Mongo.AppName,
		Monitor: monitor,
	}, logger.Named("mongodb"))
	backend := mongodb.NewGateway(connector, logger.Named("mongodb"))

	sink, err := newAuditSink(cfg.Audit, logger.Named("audit"))
	if err != nil {
		ui.Error(fmt.Sprintf("error configuring audit: %v", err))
		return 1
	}

	srv := server.Server{
		APIKey:  cfg.APIKey,
		Backend: backend,
		Codec:   codec,
		Audit:   sink,
		Config:  cfg,
		Logger:  logger,
	}

	handler := api.NewHandler(srv)
	if cfg.Datadog.Enabled {
		handler = httptrace.WrapHandler(handler, cfg.Datadog.Service, "http.request")
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          logger.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}

	c.printBanner(cfg)

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.TLS {
			err = httpServer.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			ui.Error(fmt.Sprintf("error running server: %v", err))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-c.ShutdownCh:
		logger.Info("shutdown requested")
	}

	// Drain in-flight requests, then release the backend and audit sink.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("error shutting down server: %w", err))
	}
	if err := connector.Close(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := sink.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("error closing audit sink: %w", err))
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Error("error during shutdown", "error", err)
		exitCode = 1
	}

	logger.Info("server stopped")
	return exitCode
}

// loadConfig resolves the configuration: flags override environment
// variables, which override the config file, which overrides defaults.
func (c *Command) loadConfig(f *base.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(c.fs, c.flagConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(c.lookupEnv); err != nil {
		return nil, err
	}

	if f.IsSet("mongo-uri") {
		cfg.Mongo.URI = c.flagMongoURI
	}
	if f.IsSet("host") {
		cfg.Server.Host = c.flagHost
	}
	if f.IsSet("port") {
		cfg.Server.Port = c.flagPort
	}
	if f.IsSet("ssl") {
		cfg.Server.TLS = c.flagTLS
	}
	if f.IsSet("cert") {
		cfg.Server.CertFile = c.flagCertFile
	}
	if f.IsSet("key") {
		cfg.Server.KeyFile = c.flagKeyFile
	}
	if f.IsSet("log-level") {
		cfg.LogLevel = c.flagLogLevel
	}

	cfg.ApplyDefaults()
	if err := cfg.EnsureAPIKey(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(c.fs); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newAuditSink builds the configured audit sink.
func newAuditSink(cfg *config.Audit, log hclog.Logger) (audit.Sink, error) {
	if cfg == nil || !cfg.Enabled {
		return audit.NopSink{}, nil
	}

	switch cfg.Backend {
	case "kafka":
		sink, err := audit.NewKafkaSink(audit.KafkaConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, err
		}
		log.Info("publishing audit events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
		return sink, nil
	default:
		return audit.NewLogSink(log), nil
	}
}

func (c *Command) printBanner(cfg *config.Config) {
	scheme := "http"
	if cfg.Server.TLS {
		scheme = "https"
	}

	// 0.0.0.0 is not a useful address to hand to curl.
	host := cfg.Server.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	url := fmt.Sprintf("%s://%s/databases",
		scheme, net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)))

	if cfg.APIKeyGenerated {
		c.UI.Warn("No API_KEY set; generated a random API key for this process:")
		c.UI.Warn("")
		c.UI.Warn("    " + cfg.APIKey)
		c.UI.Warn("")
		c.UI.Warn("Set API_KEY to keep the key stable across restarts.")
		c.UI.Warn("")
	}

	tls := "disabled"
	if cfg.Server.TLS {
		tls = fmt.Sprintf("enabled (cert=%s, key=%s)", cfg.Server.CertFile, cfg.Server.KeyFile)
	}

	c.UI.Info(fmt.Sprintf("mongobridge v%s", version.Version))
	c.UI.Info(fmt.Sprintf("  MongoDB URI: %s", config.RedactURI(cfg.Mongo.URI)))
	c.UI.Info(fmt.Sprintf("  Listening:   %s://%s", scheme, cfg.Server.Addr()))
	c.UI.Info(fmt.Sprintf("  TLS:         %s", tls))
	c.UI.Info("")
	c.UI.Info("Example:")
	c.UI.Info(fmt.Sprintf("  curl -H '%s: %s' %s", api.APIKeyHeader, cfg.APIKey, url))
}
