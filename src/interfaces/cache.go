package interfaces

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// ICacheBackend stores encoded responses by key.
// -----------------------------------------------------------------------------

type ICacheBackend interface {

	// Get returns the stored value and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// -----------------------------------------------------------------------------

	// Set stores value under key. A zero ttl keeps it until invalidated.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// -----------------------------------------------------------------------------

	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// -----------------------------------------------------------------------------

	// Close releases backend resources.
	Close() error
}
