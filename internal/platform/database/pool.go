package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Dialect selects SQL placeholder style and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config holds database connection configuration.
type Config struct {
	Dialect Dialect
	// Path is the SQLite file, or ":memory:".
	Path string
	// URL is the PostgreSQL connection string.
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns defaults for a local SQLite database.
func DefaultConfig() Config {
	return Config{
		Dialect:         DialectSQLite,
		Path:            "databreaker.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Pool wraps a *sql.DB together with its dialect.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects and verifies the database.
func Open(cfg Config, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Dialect {
	case DialectPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("database url is required for postgres")
		}
		db, err = sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	case DialectSQLite, "":
		cfg.Dialect = DialectSQLite
		db, err = sql.Open("sqlite3", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		// One connection: in-memory databases are per-connection, and
		// writes are serialized by the store anyway.
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Debug("database opened",
		zap.String("dialect", string(cfg.Dialect)),
		zap.String("path", cfg.Path))

	return &Pool{db: db, dialect: cfg.Dialect}, nil
}

// FromDB wraps an existing handle, for tests using sqlmock.
func FromDB(db *sql.DB, dialect Dialect) *Pool {
	return &Pool{db: db, dialect: dialect}
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// DB returns the underlying *sql.DB for query operations.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Dialect reports the SQL dialect of the pool.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Rebind rewrites '?' placeholders to '$n' for PostgreSQL.
func (p *Pool) Rebind(query string) string {
	if p.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Health checks if the database is reachable.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
