package watermark

import (
	"context"
	"sync"
)

// MemoryStore holds the watermark in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	value  string
	writes int
}

// NewMemoryStore starts at initial, or at Epoch when initial is empty.
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{value: initial}
}

func (s *MemoryStore) Read(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == "" {
		return Epoch, nil
	}
	return s.value, nil
}

func (s *MemoryStore) Write(_ context.Context, ts string) error {
	if err := Validate(ts); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ts
	s.writes++
	return nil
}

// Writes reports how many times Write succeeded.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryStore) Close() error { return nil }
