package credstore

import "context"

// Store holds the current Session. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the stored session. A missing session is the zero Session
	// and a nil error.
	Get(ctx context.Context) (Session, error)

	// Set replaces the stored session. Empty fields are removed.
	Set(ctx context.Context, s Session) error

	// Clear removes every session field. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Backend is a namespaced key/value store for raw (already sealed) values.
// Drivers live under internal/credstore.
type Backend interface {
	// Load returns every key stored under namespace. An empty namespace
	// yields an empty map.
	Load(ctx context.Context, namespace string) (map[string][]byte, error)

	// Replace atomically swaps the contents of namespace for values.
	Replace(ctx context.Context, namespace string, values map[string][]byte) error

	// Delete removes the listed keys from namespace. Missing keys are ignored.
	Delete(ctx context.Context, namespace string, keys ...string) error
}
