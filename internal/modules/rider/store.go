// README: In-memory rider registry guarded by a RWMutex.
package rider

import (
	"sync"

	"github.com/get2yaheart/get2ya/internal/types"
)

type Store struct {
	mu     sync.RWMutex
	riders map[types.ID]*Rider
}

func NewStore() *Store {
	return &Store{riders: make(map[types.ID]*Rider)}
}

// Put inserts r and reports false if the id is already registered.
func (s *Store) Put(r *Rider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.riders[r.ID]; ok {
		return false
	}
	s.riders[r.ID] = r
	return true
}

func (s *Store) Get(id types.ID) (*Rider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.riders[id]
	return r, ok
}

func (s *Store) Delete(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.riders, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.riders)
}
