package mongodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultURI is used when no connection string is configured.
const DefaultURI = "mongodb://localhost:27017"

// Config holds configuration for the MongoDB connection.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// AppName is reported to the server in the connection handshake.
	AppName string

	// Monitor, when set, receives command events (used for tracing).
	Monitor *event.CommandMonitor
}

// connectFunc matches mongo.Connect.
type connectFunc func(ctx context.Context, opts ...*options.ClientOptions) (*mongo.Client, error)

// Connector lazily creates a single MongoDB client on first use and hands the
// same client to every caller afterwards. The driver client is safe for
// concurrent use and pools its own connections.
type Connector struct {
	cfg     Config
	log     hclog.Logger
	connect connectFunc

	mu     sync.Mutex
	client atomic.Pointer[mongo.Client]
}

// NewConnector returns a connector. No connection is made until Client is
// called.
func NewConnector(cfg Config, log hclog.Logger) *Connector {
	if cfg.URI == "" {
		cfg.URI = DefaultURI
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Connector{
		cfg:     cfg,
		log:     log,
		connect: mongo.Connect,
	}
}

// Client returns the shared client, creating it on the first call. Only one
// client is ever created, even under concurrent first calls. A failed creation
// is not remembered; the next call tries again.
func (c *Connector) Client(ctx context.Context) (*mongo.Client, error) {
	if client := c.client.Load(); client != nil {
		return client, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client := c.client.Load(); client != nil {
		return client, nil
	}

	opts := options.Client().ApplyURI(c.cfg.URI)
	if c.cfg.AppName != "" {
		opts.SetAppName(c.cfg.AppName)
	}
	if c.cfg.Monitor != nil {
		opts.SetMonitor(c.cfg.Monitor)
	}

	client, err := c.connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error creating mongodb client: %w", err)
	}
	c.client.Store(client)

	c.log.Info("created mongodb client", "app_name", c.cfg.AppName)

	return client, nil
}

// Connected reports whether the client has been created.
func (c *Connector) Connected() bool {
	return c.client.Load() != nil
}

// Close disconnects the client if one was created.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client := c.client.Load()
	if client == nil {
		return nil
	}
	c.client.Store(nil)

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting mongodb client: %w", err)
	}
	c.log.Info("disconnected mongodb client")

	return nil
}
