// README: In-memory driver registry guarded by a RWMutex.
package driver

import (
	"sync"

	"github.com/get2yaheart/get2ya/internal/types"
)

// Store owns the live Driver handles. The spatial index keeps its own
// snapshots; this registry is the single place a driver object is created
// and destroyed.
type Store struct {
	mu      sync.RWMutex
	drivers map[types.ID]*Driver
}

func NewStore() *Store {
	return &Store{drivers: make(map[types.ID]*Driver)}
}

// Put inserts d and reports false if the id is already registered.
func (s *Store) Put(d *Driver) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[d.ID]; ok {
		return false
	}
	s.drivers[d.ID] = d
	return true
}

func (s *Store) Get(id types.ID) (*Driver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	return d, ok
}

func (s *Store) Delete(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drivers, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.drivers)
}
