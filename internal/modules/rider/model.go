// README: Rider aggregate with atomically swapped position state.
package rider

import (
	"sync/atomic"
	"time"

	"github.com/get2yaheart/get2ya/internal/types"
)

// State is the immutable per-rider value readers see. Updates build a fresh
// State and swap the pointer.
type State struct {
	Position  types.Point
	UpdatedAt time.Time
	Rating    float64
}

// Rider is the registry entry for one passenger. Identity and payment label
// are fixed at registration.
type Rider struct {
	ID            types.ID
	Name          string
	PaymentMethod string

	state atomic.Pointer[State]
}

// New creates a rider. A zero rating means "unrated" and defaults to 5.0.
func New(id types.ID, name, paymentMethod string, rating float64) *Rider {
	if rating <= 0 {
		rating = 5.0
	}
	r := &Rider{
		ID:            id,
		Name:          name,
		PaymentMethod: paymentMethod,
	}
	r.state.Store(&State{Rating: clampRating(rating)})
	return r
}

// State returns the current immutable state.
func (r *Rider) State() *State {
	return r.state.Load()
}

// UpdateLocation records the rider's position at time at and returns the
// state it installed.
func (r *Rider) UpdateLocation(p types.Point, at time.Time) *State {
	for {
		cur := r.state.Load()
		next := *cur
		next.Position = p
		next.UpdatedAt = at
		if r.state.CompareAndSwap(cur, &next) {
			return &next
		}
	}
}

// SetRating replaces the rating, clamped to the 0–5 scale.
func (r *Rider) SetRating(rt float64) {
	for {
		cur := r.state.Load()
		next := *cur
		next.Rating = clampRating(rt)
		if r.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
