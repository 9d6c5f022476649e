package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/beenverified"
	"databreaker/internal/broker/connectors/dummy"
	"databreaker/internal/broker/metrics"
	"databreaker/internal/broker/orchestrator"
	"databreaker/internal/broker/store"
	"databreaker/internal/broker/tracer"
	"databreaker/internal/platform/config"
	"databreaker/internal/platform/database"
	"databreaker/internal/platform/logger"
	"databreaker/migrations"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *connectors.Registry
	prom     *prometheus.Registry
	metrics  *metrics.Metrics

	// Set by openStore.
	store  store.Store
	pool   *database.Pool
	engine *orchestrator.Orchestrator
}

// setup loads configuration, builds the logger and the connector registry.
// It does not touch the database.
func (o *rootOptions) setup() (*app, error) {
	v, err := config.New(o.configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level: logger.LevelForVerbosity(cfg.Log.Level, o.verbosity),
		JSON:  cfg.Log.JSON,
	})
	if err != nil {
		return nil, err
	}

	prom := prometheus.NewRegistry()
	prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		logger:   log,
		registry: buildRegistry(cfg, log),
		prom:     prom,
		metrics:  metrics.New(prom),
	}, nil
}

// open is setup plus the store and the orchestrator.
func (o *rootOptions) open(ctx context.Context) (*app, error) {
	a, err := o.setup()
	if err != nil {
		return nil, err
	}
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.engine = orchestrator.New(a.registry, a.store,
		orchestrator.WithLogger(a.logger),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithTracer(tracer.NewOTel()),
		orchestrator.WithConfig(orchestrator.Config{
			Concurrency:      a.cfg.Connectors.Concurrency,
			CallTimeout:      a.cfg.Connectors.Timeout,
			BreakerThreshold: a.cfg.Reconcile.BreakerThreshold,
		}),
	)
	return a, nil
}

func buildRegistry(cfg *config.Config, log *zap.Logger) *connectors.Registry {
	return connectors.Build(log,
		dummy.New,
		func() (connectors.Connector, error) {
			return beenverified.NewWithConfig(beenverified.Config{
				RequestsPerMinute: cfg.Connectors.RequestsPerMinute,
				Logger:            log,
			})
		},
	)
}

func (a *app) openStore(ctx context.Context) error {
	dbCfg := database.DefaultConfig()
	switch a.cfg.Database.Driver {
	case config.DriverMemory:
		a.store = store.NewInMemoryStore()
		return nil
	case config.DriverPostgres:
		dbCfg.Dialect = database.DialectPostgres
		dbCfg.URL = a.cfg.Database.URL
	default:
		dbCfg.Dialect = database.DialectSQLite
		dbCfg.Path = a.cfg.Database.Path
		if dir := filepath.Dir(dbCfg.Path); dir != "." && dbCfg.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	pool, err := database.Open(dbCfg, a.logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, pool, migrations.FS, a.logger); err != nil {
		pool.Close() //nolint:errcheck // best-effort cleanup on init failure
		return err
	}
	a.pool = pool
	a.store = store.NewSQLStore(pool)
	return nil
}

// Close releases the database and flushes the logger.
func (a *app) Close() {
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
