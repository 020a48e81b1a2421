// Package storage defines the key-value port used for local persistence.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when a key has never been written
var ErrKeyNotFound = errors.New("key not found")

// KV is a byte-oriented key-value store
type KV interface {
	// Get returns the value stored under key, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// SetMany writes every entry atomically: either all keys are updated or none are
	SetMany(ctx context.Context, entries map[string][]byte) error

	Close() error
}
