package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msomdec/userdata-api/internal/domain"
)

// DefaultCollection is the collection records are stored in.
const DefaultCollection = "data"

// emailSuffix names the guard collection that sits next to the record
// collection. Each guard document is keyed by a digest of the email and
// points at the record that owns it.
const emailSuffix = "_emails"

// countAlias labels the count aggregation result.
const countAlias = "all"

// Document field names.
const (
	fieldName      = "name"
	fieldEmail     = "email"
	fieldPassword  = "password"
	fieldMobile    = "mobile"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

type recordDoc struct {
	Name      string    `firestore:"name"`
	Email     string    `firestore:"email"`
	Password  string    `firestore:"password"`
	Mobile    string    `firestore:"mobile"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type emailGuardDoc struct {
	RecordID string `firestore:"recordId"`
}

// RecordStore implements domain.RecordStore using Firestore.
type RecordStore struct {
	client  *firestore.Client
	records *firestore.CollectionRef
	emails  *firestore.CollectionRef
	now     func() time.Time
}

var _ domain.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a Firestore-backed RecordStore over the named
// collection. An empty name selects DefaultCollection.
func NewRecordStore(client *firestore.Client, collection string) *RecordStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &RecordStore{
		client:  client,
		records: client.Collection(collection),
		emails:  client.Collection(collection + emailSuffix),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordStore) FindByEmail(ctx context.Context, email string) (*domain.Record, error) {
	iter := s.records.Where(fieldEmail, "==", email).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record by email: %w", err)
	}
	return toRecord(snap)
}

// Add writes the record and its email guard in one transaction. The guard
// is created with Create, so a concurrent Add of the same email fails.
func (s *RecordStore) Add(ctx context.Context, record *domain.Record) error {
	now := s.now()
	var ref *firestore.DocumentRef

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		guard := s.guardRef(record.Email)
		_, err := tx.Get(guard)
		if err == nil {
			return domain.ErrDuplicateEmail
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		ref = s.records.NewDoc()
		if err := tx.Create(ref, recordDoc{
			Name:      record.Name,
			Email:     record.Email,
			Password:  record.PasswordHash,
			Mobile:    record.Mobile,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Create(guard, emailGuardDoc{RecordID: ref.ID})
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || status.Code(err) == codes.AlreadyExists {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("add record: %w", err)
	}

	record.ID = ref.ID
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (s *RecordStore) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	ref := s.docRef(id)
	if ref == nil {
		return nil, domain.ErrNotFound
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return toRecord(snap)
}

// Merge writes the patched fields with merge semantics. A missing id is
// created. Changing the email moves the guard, failing if the new email
// belongs to another record.
func (s *RecordStore) Merge(ctx context.Context, id string, patch domain.RecordPatch) error {
	ref := s.docRef(id)
	if ref == nil {
		return fmt.Errorf("merge record %q: %w", id, domain.ErrInvalidInput)
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore requires every read before the first write.
		var current recordDoc
		snap, err := tx.Get(ref)
		exists := err == nil
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if exists {
			if err := snap.DataTo(&current); err != nil {
				return err
			}
		}

		move := planEmailMove(exists, current.Email, patch.Email)
		if move.claim != "" {
			guardSnap, err := tx.Get(s.guardRef(move.claim))
			if err == nil {
				var guard emailGuardDoc
				if err := guardSnap.DataTo(&guard); err != nil {
					return err
				}
				if guard.RecordID != id {
					return domain.ErrDuplicateEmail
				}
			} else if status.Code(err) != codes.NotFound {
				return err
			}
		}

		now := s.now()
		fields := map[string]any{fieldUpdatedAt: now}
		if !exists {
			fields[fieldCreatedAt] = now
		}
		setIfPresent(fields, fieldName, patch.Name)
		setIfPresent(fields, fieldEmail, patch.Email)
		setIfPresent(fields, fieldPassword, patch.PasswordHash)
		setIfPresent(fields, fieldMobile, patch.Mobile)

		if err := tx.Set(ref, fields, firestore.MergeAll); err != nil {
			return err
		}

		if move.release != "" {
			if err := tx.Delete(s.guardRef(move.release)); err != nil {
				return err
			}
		}
		if move.claim != "" {
			return tx.Set(s.guardRef(move.claim), emailGuardDoc{RecordID: id})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("merge record: %w", err)
	}
	return nil
}

// emailMove lists the guard changes a merge makes. Empty fields mean no
// change.
type emailMove struct {
	release string
	claim   string
}

// planEmailMove decides which guards a merge releases and claims, given
// whether the record exists, its current email and the patched email.
func planEmailMove(exists bool, current string, next *string) emailMove {
	if next == nil || (exists && *next == current) {
		return emailMove{}
	}
	move := emailMove{claim: *next}
	if exists {
		move.release = current
	}
	return move
}

// Delete removes the record and releases its email. A missing id is not
// an error.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	ref := s.docRef(id)
	if ref == nil {
		return nil
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return err
		}

		email, err := snap.DataAt(fieldEmail)
		if err == nil {
			if e, ok := email.(string); ok && e != "" {
				if err := tx.Delete(s.guardRef(e)); err != nil {
					return err
				}
			}
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *RecordStore) List(ctx context.Context) ([]domain.Record, error) {
	snaps, err := s.records.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]domain.Record, 0, len(snaps))
	for _, snap := range snaps {
		r, err := toRecord(snap)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, nil
}

// Count returns the number of stored records using a server-side count
// aggregation, so no documents are transferred.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	res, err := s.records.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	v, ok := res[countAlias].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count records: unexpected result %T", res[countAlias])
	}
	return int(v.GetIntegerValue()), nil
}

// docRef returns nil for ids Firestore cannot address, such as "" or ids
// containing '/'.
func (s *RecordStore) docRef(id string) *firestore.DocumentRef {
	if id == "" || strings.Contains(id, "/") {
		return nil
	}
	return s.records.Doc(id)
}

func (s *RecordStore) guardRef(email string) *firestore.DocumentRef {
	return s.emails.Doc(emailKey(email))
}

// emailKey maps an email to a valid document id. Emails may contain
// characters Firestore forbids in ids, such as '/'.
func emailKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

func setIfPresent(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

func toRecord(snap *firestore.DocumentSnapshot) (*domain.Record, error) {
	var doc recordDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", snap.Ref.ID, err)
	}
	return &domain.Record{
		ID:           snap.Ref.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Mobile:       doc.Mobile,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
