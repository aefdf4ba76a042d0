// Package sqlite implements the record store on an embedded SQLite
// database. It backs local development and the test suites.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/userdata-api/internal/domain"
	"github.com/msomdec/userdata-api/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and implements domain.Database.
type DB struct {
	SqlDB   *sql.DB
	records *RecordStore
}

var _ domain.Database = (*DB)(nil)

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db, records: NewRecordStore(db)}, nil
}

// Migrate provisions the schema.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := migrations.Run(ctx, d.SqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Records returns the record store.
func (d *DB) Records() domain.RecordStore {
	return d.records
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}
