// README: Driver aggregate with atomically swapped kinematic state and tier table.
package driver

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/get2yaheart/get2ya/internal/geo"
	"github.com/get2yaheart/get2ya/internal/types"
)

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOnTrip    Status = "ON_TRIP"
	StatusOffline   Status = "OFFLINE"
)

// ValidStatus reports whether s is one of the three driver states.
func ValidStatus(s Status) bool {
	return s == StatusAvailable || s == StatusOnTrip || s == StatusOffline
}

// Tier is the service tier a vehicle category maps to.
type Tier string

const (
	TierX     Tier = "X"
	TierXL    Tier = "XL"
	TierBlack Tier = "Black"
	TierGreen Tier = "Green"
)

// tierByCategory is the static category→tier table. Lookups are
// case-insensitive and anything unlisted falls back to defaultTier.
var tierByCategory = map[string]Tier{
	"sedan":    TierX,
	"compact":  TierX,
	"suv":      TierXL,
	"minivan":  TierXL,
	"luxury":   TierBlack,
	"bmw":      TierBlack,
	"mercedes": TierBlack,
	"tesla":    TierGreen,
}

const defaultTier = TierX

// TierFor maps a vehicle category to its service tier.
func TierFor(category string) Tier {
	if t, ok := tierByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t
	}
	return defaultTier
}

// State is the immutable per-driver value the rest of the system reads.
// Every update builds a fresh State and swaps the pointer, so a reader
// always sees a consistent position/heading/speed/status set. The current
// position doubles as the "previous" one for the next kinematics update.
type State struct {
	Position   types.Point
	UpdatedAt  time.Time
	HeadingDeg float64
	SpeedKmh   float64
	Status     Status
	Rating     float64
}

// Driver is the registry entry for one vehicle. Identity and tier are fixed
// at registration; everything that moves lives in the atomic State.
type Driver struct {
	ID      types.ID
	Vehicle string
	Tier    Tier

	state atomic.Pointer[State]
}

// New creates a driver in the AVAILABLE state. A zero rating means
// "unrated" and defaults to 5.0.
func New(id types.ID, vehicle string, rating float64) *Driver {
	if rating <= 0 {
		rating = 5.0
	}
	d := &Driver{
		ID:      id,
		Vehicle: vehicle,
		Tier:    TierFor(vehicle),
	}
	d.state.Store(&State{
		Status: StatusAvailable,
		Rating: clampRating(rating),
	})
	return d
}

// State returns the current immutable state.
func (d *Driver) State() *State {
	return d.state.Load()
}

// UpdateLocation records a position ping at time at. When a previous ping
// exists, heading is the forward azimuth from the old position and speed is
// the great-circle distance over elapsed wall-clock time; non-positive
// elapsed time forces speed to 0. Returns the state it installed.
func (d *Driver) UpdateLocation(p types.Point, at time.Time) *State {
	for {
		cur := d.state.Load()
		next := *cur
		if !cur.UpdatedAt.IsZero() {
			next.HeadingDeg = geo.Bearing(cur.Position, p)
			elapsed := at.Sub(cur.UpdatedAt).Seconds()
			if elapsed <= 0 {
				next.SpeedKmh = 0
			} else {
				next.SpeedKmh = geo.DistanceMeters(cur.Position, p) / elapsed * 3.6
			}
		}
		next.Position = p
		next.UpdatedAt = at
		if d.state.CompareAndSwap(cur, &next) {
			return &next
		}
	}
}

// SetStatus unconditionally replaces the driver's status.
func (d *Driver) SetStatus(s Status) {
	for {
		cur := d.state.Load()
		next := *cur
		next.Status = s
		if d.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// TransitionStatus swaps from→to atomically and reports whether it won.
// Trip assignment uses this to claim an AVAILABLE driver exactly once.
func (d *Driver) TransitionStatus(from, to Status) bool {
	for {
		cur := d.state.Load()
		if cur.Status != from {
			return false
		}
		next := *cur
		next.Status = to
		if d.state.CompareAndSwap(cur, &next) {
			return true
		}
	}
}

// SetRating replaces the rating, clamped to the 0–5 scale.
func (d *Driver) SetRating(r float64) {
	for {
		cur := d.state.Load()
		next := *cur
		next.Rating = clampRating(r)
		if d.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// SetHeading sets the heading directly, wrapped into [0,360).
func (d *Driver) SetHeading(deg float64) {
	for {
		cur := d.state.Load()
		next := *cur
		next.HeadingDeg = normalizeHeading(deg)
		if d.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// SetSpeed sets the speed directly, clamped to ≥ 0.
func (d *Driver) SetSpeed(kmh float64) {
	for {
		cur := d.state.Load()
		next := *cur
		if kmh < 0 {
			kmh = 0
		}
		next.SpeedKmh = kmh
		if d.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

func normalizeHeading(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	return m
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
