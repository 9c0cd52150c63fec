package save

import (
	"context"
	"errors"
	"fmt"

	"github.com/udisondev/zumbor/internal/db"
)

// Storage is a flat key-value object store with prefix listing.
// Get and Delete return an error wrapping db.ErrNotFound for absent keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

var _ Storage = db.ObjectStore(nil)

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorageFailure, op, key, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
