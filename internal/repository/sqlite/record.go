package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/userdata-api/internal/domain"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RecordStore implements domain.RecordStore using SQLite.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ domain.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a new SQLite-backed RecordStore.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const recordColumns = `id, name, email, password_hash, mobile, created_at, updated_at`

func (s *RecordStore) FindByEmail(ctx context.Context, email string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE email = ? LIMIT 1`, email)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query record by email: %w", err)
	}
	return record, nil
}

func (s *RecordStore) Add(ctx context.Context, record *domain.Record) error {
	id := uuid.NewString()
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, record.Name, record.Email, record.PasswordHash, record.Mobile, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert record: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (s *RecordStore) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query record by id: %w", err)
	}
	return record, nil
}

// Merge upserts the record, so a missing id is created with the supplied
// fields, matching a document store's merge write.
func (s *RecordStore) Merge(ctx context.Context, id string, patch domain.RecordPatch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (`+recordColumns+`)
		VALUES (?1, COALESCE(?2, ''), COALESCE(?3, ''), COALESCE(?4, ''), COALESCE(?5, ''), ?6, ?6)
		ON CONFLICT (id) DO UPDATE SET
			name          = COALESCE(?2, name),
			email         = COALESCE(?3, email),
			password_hash = COALESCE(?4, password_hash),
			mobile        = COALESCE(?5, mobile),
			updated_at    = ?6`,
		id, nullString(patch.Name), nullString(patch.Email), nullString(patch.PasswordHash), nullString(patch.Mobile), s.now(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("merge record: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *RecordStore) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.Record, error) {
	r := &domain.Record{}
	if err := row.Scan(&r.ID, &r.Name, &r.Email, &r.PasswordHash, &r.Mobile, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
}
