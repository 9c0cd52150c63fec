package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/zumbor/internal/config"
)

// ObjectStore is the key-value contract every backend in this package meets.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

var (
	_ ObjectStore = (*MemoryStore)(nil)
	_ ObjectStore = (*DirStore)(nil)
	_ ObjectStore = (*PostgresStore)(nil)
)

// Open builds the backend named by cfg. The returned func releases its resources.
// The postgres backend connects and applies migrations before returning.
func Open(ctx context.Context, cfg config.Storage) (ObjectStore, func(), error) {
	switch cfg.Backend {
	case config.StorageMemory:
		slog.Warn("memory storage: objects are lost on exit")
		return NewMemoryStore(), func() {}, nil

	case config.StorageDir:
		store, err := NewDirStore(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage dir: %w", err)
		}
		slog.Info("storage ready", "dir", cfg.Dir)
		return store, func() {}, nil

	case config.StoragePostgres:
		dsn := cfg.Database.DSN()
		database, err := New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := RunMigrations(ctx, dsn); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return NewPostgresStore(database.Pool()), database.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
