// README: In-memory trip store. Backs tests and DSN-less development runs
// with the same transition guarantees as PGStore.
package trip

import (
	"context"
	"sync"
	"time"

	"github.com/get2yaheart/get2ya/internal/types"
)

// MemStore keeps trips in a mutex-guarded map. UpdateStatus applies the same
// status and version guards as the SQL store, so races resolve identically.
type MemStore struct {
	mu     sync.Mutex
	trips  map[types.ID]*Trip
	events []*Event
}

func NewMemStore() *MemStore {
	return &MemStore{trips: make(map[types.ID]*Trip)}
}

func (m *MemStore) Create(ctx context.Context, t *Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trips[t.ID] = &cp
	return nil
}

func (m *MemStore) Get(ctx context.Context, id types.ID) (*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, u StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok || t.Status != from || t.StatusVersion != version {
		return false, nil
	}
	t.Status = to
	t.StatusVersion++
	if u.DriverID != nil {
		d := *u.DriverID
		t.DriverID = &d
	}
	if u.FinalFare != nil {
		f := *u.FinalFare
		t.FinalFare = &f
	}
	if u.Reason != nil {
		r := *u.Reason
		t.CancelReason = &r
	}
	now := time.Now()
	switch to {
	case StatusAssigned:
		t.AssignedAt = &now
	case StatusInProgress:
		t.StartedAt = &now
	case StatusCompleted:
		t.CompletedAt = &now
	case StatusCancelled:
		t.CancelledAt = &now
	}
	return true, nil
}

func (m *MemStore) AppendEvent(ctx context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemStore) HasActiveByRider(ctx context.Context, riderID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.RiderID == riderID && t.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

// Events returns a copy of the recorded status history.
func (m *MemStore) Events() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}
