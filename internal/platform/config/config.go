package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DATABREAKER_DATABASE_PATH.
const EnvPrefix = "DATABREAKER"

// Database drivers accepted by database.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultRegistryURL is the community-maintained broker feed.
const DefaultRegistryURL = "https://raw.githubusercontent.com/bombfork/data-breaker-registry/main/brokers.json"

type Config struct {
	Database   Database   `mapstructure:"database"`
	Registry   Registry   `mapstructure:"registry"`
	Connectors Connectors `mapstructure:"connectors"`
	Reconcile  Reconcile  `mapstructure:"reconcile"`
	Log        Log        `mapstructure:"log"`
	Server     Server     `mapstructure:"server"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

type Registry struct {
	URL string `mapstructure:"url"`
}

// Connectors bounds outbound broker traffic.
type Connectors struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type Reconcile struct {
	BreakerThreshold int `mapstructure:"breaker_threshold"`
}

type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "databreaker.db")
	v.SetDefault("database.url", "")

	v.SetDefault("registry.url", DefaultRegistryURL)

	v.SetDefault("connectors.timeout", 30*time.Second)
	v.SetDefault("connectors.concurrency", 4)
	v.SetDefault("connectors.requests_per_minute", 30) // polite default for scraped sites

	v.SetDefault("reconcile.breaker_threshold", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("server.addr", ":8080")
}

// New returns a viper instance with defaults and environment binding. When
// configFile is set it is read as well; its type follows the extension.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Connectors.Timeout <= 0 {
		return fmt.Errorf("connectors.timeout must be positive")
	}
	if c.Connectors.Concurrency <= 0 {
		return fmt.Errorf("connectors.concurrency must be positive")
	}
	if c.Connectors.RequestsPerMinute < 0 || c.Reconcile.BreakerThreshold < 0 {
		return fmt.Errorf("connectors.requests_per_minute and reconcile.breaker_threshold must not be negative")
	}
	return nil
}
