package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
)

// Run applies every embedded migration that is not yet recorded in the
// schema_migrations table. Each file runs in its own transaction together
// with its bookkeeping row.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := appliedSet(ctx, db)
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	files, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return fmt.Errorf("list migration files: %w", err)
	}
	slices.Sort(files)

	for _, name := range files {
		if applied[name] {
			continue
		}
		if err := apply(ctx, db, name); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		slog.Info("migration applied", "store", "sqlite", "file", path.Base(name))
	}
	return nil
}

func appliedSet(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	content, err := fs.ReadFile(FS, name)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
