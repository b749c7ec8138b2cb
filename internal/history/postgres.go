package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// PostgresStorage implements Storage using PostgreSQL.
// It expects the kv_store table to exist (created via migrations).
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage wraps an open connection.
func NewPostgresStorage(db *sql.DB) (*PostgresStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStorage{db: db}, nil
}

func (s *PostgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStorage) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
