package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Migrate applies every pending numbered migration from migrationsFS.
// 000_* must create schema_migrations. Each file runs in its own
// transaction, split into single statements so PostgreSQL's extended
// protocol accepts it.
func Migrate(ctx context.Context, p *Pool, migrationsFS fs.FS, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, name := range files {
		version := strings.SplitN(name, "_", 2)[0]

		var exists bool
		err := p.db.QueryRowContext(ctx,
			p.Rebind("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)"), version).Scan(&exists)
		if err != nil {
			if version != "000" {
				return fmt.Errorf("schema_migrations table missing, but migration is not 000: %s: %w", name, err)
			}
		} else if exists {
			logger.Debug("skipping migration (already applied)", zap.String("migration", name))
			continue
		}

		body, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("migration", name))

		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(body)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback() //nolint:errcheck // returning the exec error
				return fmt.Errorf("execute %s: %w", name, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			p.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
			version, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			tx.Rollback() //nolint:errcheck // returning the exec error
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		applied++
	}

	logger.Info("migrations complete",
		zap.Int("total_migrations", len(files)),
		zap.Int("applied", applied))
	return nil
}

func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
