// Package config loads and validates configuration for the indexer binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the top-level configuration for the indexer daemon
// (cmd/indexer): database connection, ingestion sources, the read API, and
// logging settings.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains Postgres connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432" validate:"required"`
	User     string `yaml:"user" default:"indexer" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"untron_indexer" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
	// Debug logs every query bun issues, including parameter values. Only
	// enable outside production.
	Debug bool `yaml:"debug"`
}

// ConnectionString returns a libpq-style DSN for this database configuration.
func (c DatabaseConfig) ConnectionString() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode)
}

// APIConfig contains the read API's HTTP server settings.
type APIConfig struct {
	Host           string        `yaml:"host" default:"0.0.0.0"`
	Port           int           `yaml:"port" default:"8090" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"15s"`
	AdminJWKSURL   string        `yaml:"admin_jwks_url"`
	AdminIssuer    string        `yaml:"admin_issuer"`
}

// SourceConfig describes one configured EVM chain the ingester polls.
type SourceConfig struct {
	ChainID         uint64        `yaml:"chain_id" validate:"required"`
	RPCURL          string        `yaml:"rpc_url" validate:"required"`
	PollingInterval time.Duration `yaml:"polling_interval" default:"5s"`
	ConfirmationLag uint64        `yaml:"confirmation_lag" default:"5"`
	PoolAddress     string        `yaml:"pool_address"`
	Forwarders      []string      `yaml:"forwarders"`
}

// IngestConfig configures the chain sources the ingester polls.
type IngestConfig struct {
	Sources []SourceConfig `yaml:"sources" validate:"dive"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load reads, defaults, overrides from environment, and validates the
// daemon configuration at configPath.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	overrideEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func overrideEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
