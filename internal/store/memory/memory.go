package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/jobfeed/internal/store"
)

// Store keeps values in a map. Nothing survives the process.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	failW  error
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failW != nil {
		return s.failW
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// FailWrites makes every following Set return err until called with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failW = err
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
