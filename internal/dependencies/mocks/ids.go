package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/scorekeeper/internal/dependencies/ids"
)

// MockIDs is a mock implementation of ids.Generator for testing.
// Queued ids are returned first, then "<prefix>-<n>" sequentially.
type MockIDs struct {
	mu     sync.Mutex
	Prefix string
	queued []string
	next   int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a MockIDs with the "id" prefix
func NewMockIDs() *MockIDs {
	return &MockIDs{Prefix: "id"}
}

// NewID returns the next queued id or the next sequential id
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queued) > 0 {
		id := m.queued[0]
		m.queued = m.queued[1:]
		return id
	}
	m.next++
	return fmt.Sprintf("%s-%d", m.Prefix, m.next)
}

// Queue adds ids to be returned before sequential ones
func (m *MockIDs) Queue(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, values...)
}
