package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps objects in the objects table, one row per key.
// Writes are whole-record upserts: the last write wins.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт object store поверх pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get returns the object content or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM objects WHERE key = $1`, key,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("querying object %q: %w", key, err)
	}
	return content, nil
}

// Put creates or replaces the object under key.
func (s *PostgresStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO objects (key, content, content_type, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET content = EXCLUDED.content,
		     content_type = EXCLUDED.content_type,
		     updated_at = EXCLUDED.updated_at`,
		key, data, contentType,
	)
	if err != nil {
		return fmt.Errorf("upserting object %q: %w", key, err)
	}
	return nil
}

// Delete removes the object under key. Returns ErrNotFound if there was none.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM objects WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

// List returns every key starting with prefix, in key order.
func (s *PostgresStore) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM objects WHERE starts_with(key, $1) ORDER BY key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects %q: %w", prefix, err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning object keys %q: %w", prefix, err)
	}
	return keys, nil
}
