package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order, each inside its own transaction.
// It returns the versions it applied.
func Migrate(ctx context.Context, db *sqlx.DB) ([]string, error) {
	return migrate(ctx, db, migrationFiles)
}

func migrate(ctx context.Context, db *sqlx.DB, files fs.FS) ([]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.SelectContext(ctx, &done, "SELECT version FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	applied := make(map[string]struct{}, len(done))
	for _, v := range done {
		applied[v] = struct{}{}
	}

	names, err := fs.Glob(files, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var ran []string
	for _, name := range names {
		version := strings.TrimSuffix(name[strings.LastIndex(name, "/")+1:], ".sql")
		if _, ok := applied[version]; ok {
			continue
		}
		body, err := fs.ReadFile(files, name)
		if err != nil {
			return ran, err
		}
		if err := applyMigration(ctx, db, version, string(body)); err != nil {
			return ran, err
		}
		ran = append(ran, version)
	}
	return ran, nil
}

func applyMigration(ctx context.Context, db *sqlx.DB, version, body string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, body); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return tx.Commit()
}
