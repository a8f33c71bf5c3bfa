package index

import "github.com/starford/vitrine/internal/models"

// CatalogIndex defines the read/write surface of the catalog mirror.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type CatalogIndex interface {
	ReplaceSnapshot(checksum string, records []models.Record) error
	SnapshotChecksum() (string, error)
	Count() (int, error)
	Categories() ([]CategoryCount, error)
	RecordByFile(fileIdentifier string) (*models.Record, error)
	Close() error
}

// Verify *DB satisfies CatalogIndex at compile time.
var _ CatalogIndex = (*DB)(nil)
