// Package config loads runtime configuration for the API server.
//
// Values are layered, later sources winning:
//   - built-in defaults (Default)
//   - an optional YAML file (--config flag or SEMX_CONFIG)
//   - a .env file in the working directory, if present
//   - process environment variables
//   - explicitly set command-line flags
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Environment identifies the deployment type.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Storage drivers.
const (
	DriverFile  = "file"
	DriverMongo = "mongo"
)

// Config is the full server configuration.
type Config struct {
	Environment Environment     `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Storage     StorageConfig   `yaml:"storage"`
	Auth        AuthConfig      `yaml:"auth"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Log         LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP and gRPC health listeners.
type ServerConfig struct {
	HTTPPort        string        `yaml:"http_port"`
	GRPCPort        string        `yaml:"grpc_port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// TLSCert and TLSKey enable TLS on both listeners when set together.
	TLSCert    string `yaml:"tls_cert"`
	TLSKey     string `yaml:"tls_key"`
	RequireTLS bool   `yaml:"require_tls"`
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	// Driver is "file" (default) or "mongo".
	Driver string `yaml:"driver"`

	// Path is the JSON document location for the file driver.
	Path string `yaml:"path"`

	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	// DocumentID is the _id of the snapshot document in MongoDB.
	DocumentID string `yaml:"document_id"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	// JWTSecret is a single HMAC secret. Ignored when JWTKeys is set.
	JWTSecret string `yaml:"jwt_secret"`
	// JWTKeys maps key ids to secrets so keys can be rotated.
	JWTKeys   map[string]string `yaml:"jwt_keys"`
	ActiveKID string            `yaml:"active_kid"`
	TokenTTL  time.Duration     `yaml:"token_ttl"`
}

// RateLimitConfig bounds register and login attempts per key.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used before any file or environment
// overrides are applied. It deliberately has no JWT secret.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			HTTPPort:        "3001",
			GRPCPort:        "50051",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:          DriverFile,
			Path:            "db.json",
			MongoDatabase:   "semx",
			MongoCollection: "documents",
			DocumentID:      "semx",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 10,
			Burst:             3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), an optional .env file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("ENVIRONMENT"); ok && v != "" {
		c.Environment = Environment(strings.ToLower(v))
	}
	str("PORT", &c.Server.HTTPPort)
	str("GRPC_PORT", &c.Server.GRPCPort)
	str("TLS_CERT", &c.Server.TLSCert)
	str("TLS_KEY", &c.Server.TLSKey)
	if v, ok := lookup("REQUIRE_TLS"); ok && v != "" {
		c.Server.RequireTLS = v == "true"
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("DB_PATH", &c.Storage.Path)
	str("MONGODB_URI", &c.Storage.MongoURI)
	str("MONGODB_DATABASE", &c.Storage.MongoDatabase)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_ACTIVE_KID", &c.Auth.ActiveKID)
	if v, ok := lookup("JWT_KEYS"); ok && v != "" {
		keys, err := ParseKeys(v)
		if err != nil {
			return err
		}
		c.Auth.JWTKeys = keys
	}
	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}

	if v, ok := lookup("RATE_LIMIT_RPM"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return nil
}

// ParseKeys parses "kid:secret,kid2:secret2" into a key map.
func ParseKeys(s string) (map[string]string, error) {
	keys := map[string]string{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid JWT_KEYS entry: %s", p)
		}
		keys[parts[0]] = parts[1]
	}
	return keys, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports configuration that the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" && len(c.Auth.JWTKeys) == 0 {
		errs = append(errs, errors.New("either JWT_SECRET or JWT_KEYS must be set"))
	}
	if len(c.Auth.JWTKeys) > 0 {
		if _, ok := c.Auth.JWTKeys[c.Auth.ActiveKID]; !ok {
			errs = append(errs, fmt.Errorf("JWT_ACTIVE_KID %q is not one of JWT_KEYS", c.Auth.ActiveKID))
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}

	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage path must be set for the file driver"))
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI must be set for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}
	if c.Server.RequireTLS && c.Server.TLSCert == "" {
		errs = append(errs, errors.New("REQUIRE_TLS is true but TLS_CERT/TLS_KEY are not configured"))
	}

	return errors.Join(errs...)
}

// TLSEnabled reports whether a certificate pair is configured.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCert != "" && c.Server.TLSKey != ""
}

// Flags holds command-line overrides. Only flags the user actually set
// are applied, so environment values survive unset flags.
type Flags struct {
	set *pflag.FlagSet

	ConfigPath    string
	HTTPPort      string
	GRPCPort      string
	StoragePath   string
	StorageDriver string
	LogLevel      string
}

// RegisterFlags defines the server flags on fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{set: fs}
	fs.StringVar(&f.ConfigPath, "config", os.Getenv("SEMX_CONFIG"), "path to YAML config file")
	fs.StringVar(&f.HTTPPort, "port", "", "HTTP listen port")
	fs.StringVar(&f.GRPCPort, "grpc-port", "", "gRPC health listen port")
	fs.StringVar(&f.StoragePath, "db", "", "path to the JSON document store")
	fs.StringVar(&f.StorageDriver, "storage", "", "storage driver (file or mongo)")
	fs.StringVar(&f.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	return f
}

// Apply copies explicitly set flags onto cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.set.Changed("port") {
		cfg.Server.HTTPPort = f.HTTPPort
	}
	if f.set.Changed("grpc-port") {
		cfg.Server.GRPCPort = f.GRPCPort
	}
	if f.set.Changed("db") {
		cfg.Storage.Path = f.StoragePath
	}
	if f.set.Changed("storage") {
		cfg.Storage.Driver = f.StorageDriver
	}
	if f.set.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
}
