package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/mongobridge/internal/config"
	"github.com/hashicorp-forge/mongobridge/pkg/audit"
	"github.com/hashicorp-forge/mongobridge/pkg/extjson"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// Server contains the server configuration.
type Server struct {
	// APIKey is the shared secret required in the X-API-Key header.
	APIKey string

	// Backend performs database operations.
	Backend mongodb.Backend

	// Codec converts between wire JSON and BSON.
	Codec extjson.Codec

	// Audit receives events for mutating operations.
	Audit audit.Sink

	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger
}
