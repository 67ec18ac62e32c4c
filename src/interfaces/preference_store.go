package interfaces

import "context"

// -----------------------------------------------------------------------------
// IPreferenceStore defines the contract for persisted presentation preferences.
// -----------------------------------------------------------------------------

type IPreferenceStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// -----------------------------------------------------------------------------

	// Set inserts or replaces the value of key.
	Set(ctx context.Context, key, value string) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
