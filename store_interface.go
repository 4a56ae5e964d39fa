package wldstore

import "context"

// Backend is the flat string key/value storage every record store persists into.
// Implementations must wrap ErrQuotaExceeded when a write fails for capacity reasons.
type Backend interface {
	// Get returns the value for key. found is false if the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all keys starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
