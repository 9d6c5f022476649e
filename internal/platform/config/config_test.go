package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "databreaker.db", cfg.Database.Path)
	assert.Equal(t, DefaultRegistryURL, cfg.Registry.URL)
	assert.Equal(t, 30*time.Second, cfg.Connectors.Timeout)
	assert.Equal(t, 4, cfg.Connectors.Concurrency)
	assert.Equal(t, 30, cfg.Connectors.RequestsPerMinute)
	assert.Zero(t, cfg.Reconcile.BreakerThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABREAKER_DATABASE_DRIVER", "postgres")
	t.Setenv("DATABREAKER_DATABASE_URL", "postgres://localhost/databreaker")
	t.Setenv("DATABREAKER_CONNECTORS_TIMEOUT", "5s")
	t.Setenv("DATABREAKER_CONNECTORS_CONCURRENCY", "8")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/databreaker", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Connectors.Timeout)
	assert.Equal(t, 8, cfg.Connectors.Concurrency)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "databreaker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: memory
log:
  level: debug
  json: true
reconcile:
  breaker_threshold: 3
`), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 3, cfg.Reconcile.BreakerThreshold)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:   Database{Driver: DriverSQLite, Path: "x.db"},
			Connectors: Connectors{Timeout: time.Second, Concurrency: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }},
		{"zero timeout", func(c *Config) { c.Connectors.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Connectors.Concurrency = 0 }},
		{"negative breaker", func(c *Config) { c.Reconcile.BreakerThreshold = -1 }},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
