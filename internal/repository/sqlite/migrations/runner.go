package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
)

// Run applies every schema file in FS that has not been applied yet and
// returns how many were applied.
func Run(ctx context.Context, db *sql.DB) (int, error) {
	return Apply(ctx, db, FS)
}

// Apply applies the unapplied *.sql files found at the root of fsys.
// Applied files are tracked by name in the schema_files table, so running
// Apply twice is a no-op.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_files (
			name       TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return 0, fmt.Errorf("create schema_files table: %w", err)
	}

	applied, err := appliedFiles(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read applied schema files: %w", err)
	}

	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return 0, fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := applyFile(ctx, db, fsys, name); err != nil {
			return count, fmt.Errorf("apply %s: %w", name, err)
		}
		slog.Info("schema file applied", "file", path.Base(name))
		count++
	}

	return count, nil
}

func appliedFiles(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_files")
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

func applyFile(ctx context.Context, db *sql.DB, fsys fs.FS, name string) error {
	content, err := fs.ReadFile(fsys, name)
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

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_files (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("record schema file: %w", err)
	}

	return tx.Commit()
}
