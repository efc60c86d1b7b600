// Package backend provides the key-value persistence backends that hold the
// serialized saved-item collection. A backend knows nothing about the
// collection's shape; it stores opaque bytes under string keys.
package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/entrhq/websaver/pkg/config"
)

// ErrUnavailable wraps every read or write failure of a backend.
var ErrUnavailable = errors.New("backend: unavailable")

// Backend is a single-writer key-value store. Get reports ok=false for an
// absent key. Set replaces the whole value.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// SQLiteFileName is the database file created inside the data directory.
const SQLiteFileName = "websaver.db"

// Open builds the backend selected by cfg.
func Open(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFile(cfg.DataDir)
	case config.BackendSQLite:
		return OpenSQLite(filepath.Join(cfg.DataDir, SQLiteFileName))
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("backend: unknown kind %q", cfg.Backend)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
