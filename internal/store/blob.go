package store

import "context"

// Blob keys. Each key is an independent failure domain: a missing or
// corrupted blob under one key must not prevent the other two from loading.
const (
	KeyUser     = "user"
	KeyPatients = "patients"
	KeyLogs     = "logs"
)

// BlobStore persists the three state collections as independently keyed
// JSON blobs. There is no transactional guarantee across keys.
type BlobStore interface {
	// Get returns the blob stored under key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the blob under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the underlying connection.
	Close() error
}
