package memory

import (
	"context"
	"os"
	"sync"

	"spese/internal/storage"
)

// Store keeps snapshots in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
}

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewFromFile seeds key with the contents of path when the file exists.
// A missing file yields an empty store.
func NewFromFile(key, path string) *Store {
	s := New()
	if data, err := os.ReadFile(path); err == nil {
		s.items[key] = data
	}
	return s
}

// ReadSnapshot returns a copy of the stored payload.
func (s *Store) ReadSnapshot(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// WriteSnapshot replaces the payload under key.
func (s *Store) WriteSnapshot(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	return nil
}
