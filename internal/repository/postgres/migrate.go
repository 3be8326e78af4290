package pgrepo

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"catalog-backend/pkg/logger"
)

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate applies every *.sql file under dir in lexical order, each in its own
// transaction, skipping versions already recorded in schema_migrations.
func Migrate(ctx context.Context, db DB, fsys fs.FS, dir string) (int, error) {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	tm := NewTransactionManager(db)
	applied := 0
	for _, name := range files {
		version := strings.TrimSuffix(name, ".sql")

		var exists bool
		if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}

		err = tm.Do(ctx, func(ctx context.Context) error {
			q := conn(ctx, db)
			if _, err := q.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := q.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", version, err)
		}
		logger.Info().Str("version", version).Msg("Migration applied")
		applied++
	}
	return applied, nil
}
