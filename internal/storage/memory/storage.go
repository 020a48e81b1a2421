package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/mcoot/scorekeeper/internal/storage"
)

// Storage is an in-memory implementation of storage.KV
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ storage.KV = (*Storage)(nil)

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return slices.Clone(value), nil
}

func (s *Storage) SetMany(ctx context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.values[key] = slices.Clone(value)
	}
	return nil
}

// Keys returns the stored keys in sorted order
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *Storage) Close() error {
	return nil
}
