package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/mongobridge/pkg/extjson"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// Environment variables read by ApplyEnv.
const (
	EnvMongoURI = "MONGO_URI"
	EnvAPIKey   = "API_KEY"
	EnvHost     = "MONGOBRIDGE_HOST"
	EnvPort     = "MONGOBRIDGE_PORT"
	EnvLogLevel = "MONGOBRIDGE_LOG_LEVEL"
)

// Defaults.
const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 80
	DefaultCertFile = "cert.pem"
	DefaultKeyFile  = "key.pem"
	DefaultLogLevel = "info"
	DefaultAppName  = "mongobridge"
	DefaultService  = "mongobridge"
)

var mongoURIPattern = regexp.MustCompile(`^mongodb(\+srv)?://`)

// Config contains the gateway configuration.
type Config struct {
	// APIKey is the shared secret required in the X-API-Key header.
	APIKey string `hcl:"api_key,optional" json:"api_key"`

	// LogLevel is one of trace, debug, info, warn or error.
	LogLevel string `hcl:"log_level,optional" json:"log_level"`

	// ExtendedJSON selects the output mode: relaxed or canonical.
	ExtendedJSON string `hcl:"extended_json,optional" json:"extended_json"`

	Mongo   *Mongo   `hcl:"mongo,block" json:"mongo"`
	Server  *Server  `hcl:"server,block" json:"server"`
	Audit   *Audit   `hcl:"audit,block" json:"audit"`
	Datadog *Datadog `hcl:"datadog,block" json:"datadog"`

	// APIKeyGenerated is true when no key was supplied and one was generated.
	APIKeyGenerated bool
}

// Mongo configures the backend connection.
type Mongo struct {
	URI     string `hcl:"uri,optional" json:"uri"`
	AppName string `hcl:"app_name,optional" json:"app_name"`
}

// Server configures the HTTP listener.
type Server struct {
	Host     string `hcl:"host,optional" json:"host"`
	Port     int    `hcl:"port,optional" json:"port"`
	TLS      bool   `hcl:"tls,optional" json:"tls"`
	CertFile string `hcl:"cert_file,optional" json:"cert_file"`
	KeyFile  string `hcl:"key_file,optional" json:"key_file"`
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Audit configures audit events for mutating operations.
type Audit struct {
	Enabled bool `hcl:"enabled,optional" json:"enabled"`

	// Backend is "log" (default) or "kafka".
	Backend string   `hcl:"backend,optional" json:"backend"`
	Brokers []string `hcl:"brokers,optional" json:"brokers"`
	Topic   string   `hcl:"topic,optional" json:"topic"`
}

// Datadog configures tracing.
type Datadog struct {
	Enabled bool   `hcl:"enabled,optional" json:"enabled"`
	Service string `hcl:"service,optional" json:"service"`
	Env     string `hcl:"env,optional" json:"env"`
}

// Load reads the HCL config file at path, if any, from fs. Env overrides and
// defaults are applied separately with ApplyEnv and ApplyDefaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := hclsimple.Decode(path, src, nil, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides config values with environment variables found by
// lookup (typically os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	c.ensureBlocks()

	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Mongo.URI = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}

	return nil
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	c.ensureBlocks()

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ExtendedJSON == "" {
		c.ExtendedJSON = extjson.ModeRelaxed
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = mongodb.DefaultURI
	}
	if c.Mongo.AppName == "" {
		c.Mongo.AppName = DefaultAppName
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.CertFile == "" {
		c.Server.CertFile = DefaultCertFile
	}
	if c.Server.KeyFile == "" {
		c.Server.KeyFile = DefaultKeyFile
	}
	if c.Audit.Backend == "" {
		c.Audit.Backend = "log"
	}
	if c.Datadog.Service == "" {
		c.Datadog.Service = DefaultService
	}
}

func (c *Config) ensureBlocks() {
	if c.Mongo == nil {
		c.Mongo = &Mongo{}
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Audit == nil {
		c.Audit = &Audit{}
	}
	if c.Datadog == nil {
		c.Datadog = &Datadog{}
	}
}

// EnsureAPIKey generates an API key if none is configured.
func (c *Config) EnsureAPIKey() error {
	if c.APIKey != "" {
		return nil
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return err
	}
	c.APIKey = key
	c.APIKeyGenerated = true

	return nil
}

// GenerateAPIKey returns a random URL-safe key with 256 bits of entropy.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error generating API key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Validate checks the configuration. TLS material is checked for existence
// on fs when TLS is enabled.
func (c *Config) Validate(fs afero.Fs) error {
	c.ensureBlocks()

	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.LogLevel,
			validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.ExtendedJSON,
			validation.In(extjson.ModeRelaxed, extjson.ModeCanonical)),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if err := validation.ValidateStruct(c.Mongo,
		validation.Field(&c.Mongo.URI,
			validation.Required,
			validation.Match(mongoURIPattern).Error("must start with mongodb:// or mongodb+srv://")),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("mongo: %w", err))
	}

	if err := validation.ValidateStruct(c.Server,
		validation.Field(&c.Server.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.CertFile, validation.When(c.Server.TLS, validation.Required)),
		validation.Field(&c.Server.KeyFile, validation.When(c.Server.TLS, validation.Required)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("server: %w", err))
	} else if c.Server.TLS {
		for _, f := range []string{c.Server.CertFile, c.Server.KeyFile} {
			if ok, _ := afero.Exists(fs, f); !ok {
				result = multierror.Append(result, fmt.Errorf(
					"server: TLS file %q not found; generate a self-signed pair with: "+
						"openssl req -x509 -newkey rsa:4096 -keyout key.pem -out cert.pem -days 365 -nodes", f))
			}
		}
	}

	if c.Audit.Enabled {
		if err := validation.ValidateStruct(c.Audit,
			validation.Field(&c.Audit.Backend, validation.In("log", "kafka")),
			validation.Field(&c.Audit.Brokers,
				validation.When(c.Audit.Backend == "kafka", validation.Required)),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("audit: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// RedactURI hides the password in a MongoDB connection string.
func RedactURI(uri string) string {
	scheme := strings.Index(uri, "://")
	if scheme < 0 {
		return uri
	}
	rest := uri[scheme+3:]

	// Credentials can only appear in the authority, which ends at the first
	// "/" or "?". Options such as authMechanismProperties may contain "@".
	authority := rest
	if end := strings.IndexAny(rest, "/?"); end >= 0 {
		authority = rest[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}

	user, _, hasPassword := strings.Cut(authority[:at], ":")
	if !hasPassword {
		return uri
	}

	return uri[:scheme+3] + user + ":xxxxx" + rest[at:]
}
