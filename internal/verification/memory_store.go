package verification

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	codes map[string]*Code
}

// NewMemoryStore builds an in-memory verification store for tests.
func NewMemoryStore() Store {
	return &memoryStore{codes: make(map[string]*Code)}
}

func (s *memoryStore) Create(_ context.Context, code Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.codes {
		if existing.Email == code.Email && existing.Purpose == code.Purpose && existing.UsedAt == nil {
			t := code.IssuedAt
			existing.UsedAt = &t
		}
	}
	stored := code
	s.codes[code.ID] = &stored
	return nil
}

func (s *memoryStore) LatestUnused(_ context.Context, email string, purpose Purpose) (Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *Code
	for _, c := range s.codes {
		if c.Email != email || c.Purpose != purpose || c.UsedAt != nil {
			continue
		}
		if latest == nil || c.IssuedAt.After(latest.IssuedAt) {
			latest = c
		}
	}
	if latest == nil {
		return Code{}, ErrNoCode
	}
	return *latest, nil
}

func (s *memoryStore) ConsumeIfFresh(_ context.Context, id string, now time.Time, maxAttempts int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok || c.UsedAt != nil || now.After(c.ExpiresAt) || c.Attempts >= maxAttempts {
		return false, nil
	}
	t := now
	c.UsedAt = &t
	return true, nil
}

func (s *memoryStore) IncrementAttempt(_ context.Context, id string, maxAttempts int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok || c.UsedAt != nil || c.Attempts >= maxAttempts {
		return 0, false, nil
	}
	c.Attempts++
	return c.Attempts, true, nil
}

func (s *memoryStore) DeleteIssuedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, c := range s.codes {
		if c.IssuedAt.Before(cutoff) {
			delete(s.codes, id)
			removed++
		}
	}
	return removed, nil
}
