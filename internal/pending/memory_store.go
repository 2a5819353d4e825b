package pending

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	reg      Registration
	deadline time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore builds an in-memory pending store for tests.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) Put(_ context.Context, email string, reg Registration, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryEntry{reg: reg, deadline: time.Now().Add(ttl)}
	return nil
}

func (s *memoryStore) Get(_ context.Context, email string) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[email]
	if !ok || time.Now().After(entry.deadline) {
		return Registration{}, ErrNotFound
	}
	return entry.reg, nil
}

func (s *memoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}
