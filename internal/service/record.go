package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/userdata-api/internal/domain"
)

// RecordService implements the record operations on top of a RecordStore.
type RecordService struct {
	records domain.RecordStore
	codec   *CredentialCodec
}

// NewRecordService creates a new RecordService.
func NewRecordService(records domain.RecordStore, codec *CredentialCodec) *RecordService {
	return &RecordService{
		records: records,
		codec:   codec,
	}
}

// CreateInput carries the fields of a new record.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// UpdateInput carries the fields of a merge update. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Mobile   *string
}

// Create stores a new record with a hashed password and returns its id.
// It returns domain.ErrDuplicateEmail if the email is already taken.
func (s *RecordService) Create(ctx context.Context, in CreateInput) (string, error) {
	_, err := s.records.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", domain.ErrDuplicateEmail
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("check email: %w", err)
	}

	hash, err := s.codec.Hash(in.Password)
	if err != nil {
		return "", err
	}

	record := &domain.Record{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Mobile:       in.Mobile,
	}

	// The store rejects a concurrent insert of the same email, so a lost
	// race surfaces here as ErrDuplicateEmail too.
	if err := s.records.Add(ctx, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", err
		}
		return "", fmt.Errorf("add record: %w", err)
	}

	return record.ID, nil
}

// List returns every stored record.
func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *RecordService) Count(ctx context.Context) (int, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Get returns the record with the given id, or domain.ErrNotFound.
func (s *RecordService) Get(ctx context.Context, id string) (*domain.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Update merges the supplied fields into the record. The id is not checked
// before writing. A supplied password is hashed first.
func (s *RecordService) Update(ctx context.Context, id string, in UpdateInput) error {
	patch := domain.RecordPatch{
		Name:   in.Name,
		Email:  in.Email,
		Mobile: in.Mobile,
	}
	if in.Password != nil {
		hash, err := s.codec.Hash(*in.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	if patch.IsEmpty() {
		return nil
	}

	if err := s.records.Merge(ctx, id, patch); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("merge record: %w", err)
	}
	return nil
}

// Delete removes the record. Deleting an unknown id succeeds.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Retrieve looks a record up by email and verifies password against the
// stored hash. It returns domain.ErrNotFound for an unknown email and
// domain.ErrUnauthorized for a wrong password.
func (s *RecordService) Retrieve(ctx context.Context, email, password string) (*domain.Record, error) {
	record, err := s.records.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find record by email: %w", err)
	}

	if !s.codec.Verify(password, record.PasswordHash) {
		return nil, domain.ErrUnauthorized
	}

	return record, nil
}
