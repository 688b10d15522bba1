// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/ilievs/splitwise/internal/models"
)

// Store defines the interface for persisting the user directory.
// The directory is loaded once at startup and flushed wholesale; there is
// no incremental update. This abstraction allows swapping backends
// (JSONL file, SQLite) without changing the ledger service.
type Store interface {
	// Load reads every persisted user. A store that has never been
	// written to returns an empty directory, not an error.
	Load(ctx context.Context) ([]*models.User, error)

	// SaveAll overwrites the backing store with exactly the given users.
	SaveAll(ctx context.Context, users []*models.User) error

	// Close releases any resources held by the store.
	Close() error
}
