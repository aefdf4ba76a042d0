// Package firestore implements the record store on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/msomdec/userdata-api/internal/domain"
)

// Config holds Firestore connection settings.
type Config struct {
	// ProjectID may be empty, in which case it is detected from the
	// credentials or the environment.
	ProjectID string
	// CredentialsFile is a service account key file. When empty the
	// application default credentials are used.
	CredentialsFile string
	// Collection names the collection holding records.
	Collection string
}

// DB owns a Firestore client and implements domain.Database.
type DB struct {
	client  *firestore.Client
	records *RecordStore
}

var _ domain.Database = (*DB)(nil)

// New creates a Firestore client from cfg.
// The caller is responsible for closing the DB when done.
func New(ctx context.Context, cfg Config) (*DB, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &DB{
		client:  client,
		records: NewRecordStore(client, cfg.Collection),
	}, nil
}

// Migrate is a no-op: Firestore collections come into existence with
// their first document.
func (d *DB) Migrate(ctx context.Context) error {
	return nil
}

// Records returns the record store.
func (d *DB) Records() domain.RecordStore {
	return d.records
}

// Close closes the client.
func (d *DB) Close() error {
	return d.client.Close()
}
