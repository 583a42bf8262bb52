package events

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore tracks processed events in process memory. It is the fallback
// Tracker for deployments that run without Postgres or Redis; entries do not
// survive a restart, so redeliveries after a restart rely on the terminal
// call-status guard instead.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryStore creates an empty in-memory tracker.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[memoryKey(provider, eventID)]
	return ok, nil
}

func (s *MemoryStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(provider, eventID)
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func memoryKey(provider, eventID string) string {
	return fmt.Sprintf("%s:%s", provider, eventID)
}

var _ Tracker = (*MemoryStore)(nil)
