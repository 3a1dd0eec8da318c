// Package localstore keeps the client-owned durable state: the stored auth
// token and orders synthesized after a failed conversion. Every record lives
// under its own key so concurrent writers never overwrite each other.
package localstore

import (
	"context"
	"fmt"

	"github.com/erp/quotedesk/internal/domain/shared"
)

// Entry is a stored key/value pair
type Entry struct {
	Key   string
	Value []byte
}

// Store is a small key/value store
type Store interface {
	// Get returns the value of key, or an error matching shared.ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all entries whose key starts with prefix, ordered by key
	List(ctx context.Context, prefix string) ([]Entry, error)
	// Close releases the store
	Close() error
}

func notFound(key string) error {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("key %q not found in local store", key))
}
