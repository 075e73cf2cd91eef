package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/infem06/progress/internal/domain"
)

// PostgresStore implements BlobStore on PostgreSQL, for installations that
// keep their records on a shared database server instead of a local file.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects with the given DSN and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := createPostgresSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing connection; used by tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func createPostgresSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ DEFAULT NOW()
	)`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Get returns the blob stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blob %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return []byte(value), nil
}

// Put writes the blob under key, replacing any previous value.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
