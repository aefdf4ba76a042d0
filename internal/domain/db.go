package domain

import "context"

// Database defines lifecycle operations for the underlying store.
// Each implementation (Firestore, SQLite) owns its own provisioning
// strategy, so the backend is swappable at startup.
type Database interface {
	Migrate(ctx context.Context) error
	Records() RecordStore
	Close() error
}
