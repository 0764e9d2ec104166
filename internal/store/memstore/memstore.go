// Package memstore is an in-memory store.Store, used by tests and the demo
// CLI when no Postgres backend is configured.
package memstore

import (
	"context"
	"sync"

	"github.com/sage-x-project/authnet/internal/store"
)

// Store is a map-backed store.Store guarded by a mutex, using a map+mutex
// rather than sync.Map since reads and writes are roughly balanced here.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Save(ctx context.Context, keyPath []string, value []byte) error {
	key := store.JoinKeyPath(keyPath)
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cp
	return nil
}

func (s *Store) Load(ctx context.Context, keyPath []string) ([]byte, bool, error) {
	key := store.JoinKeyPath(keyPath)

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

var _ store.Store = (*Store)(nil)
