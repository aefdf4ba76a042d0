package domain

import (
	"context"
	"time"
)

// Record is a stored user entry.
type Record struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Mobile       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecordPatch holds the fields of a merge update. Nil fields are left
// untouched by the store.
type RecordPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Mobile       *string
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Mobile == nil
}

// RecordStore defines the document-store primitives used for records.
//
// Implementations must return ErrNotFound from GetByID and FindByEmail when
// nothing matches, and ErrDuplicateEmail from Add and Merge when the email
// is already owned by another record.
type RecordStore interface {
	FindByEmail(ctx context.Context, email string) (*Record, error)
	Add(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id string) (*Record, error)
	// Merge writes only the fields set in patch. A missing id is created.
	Merge(ctx context.Context, id string, patch RecordPatch) error
	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
	Count(ctx context.Context) (int, error)
}
