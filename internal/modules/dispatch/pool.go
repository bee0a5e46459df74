// README: The driver pool. A concurrent multi-resolution hex-grid index of
// driver snapshots with ranked radius queries and staleness eviction.
package dispatch

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/get2yaheart/get2ya/internal/config"
	"github.com/get2yaheart/get2ya/internal/geo"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	ErrNilDriver       = errors.New("nil driver")
	ErrNoPosition      = errors.New("driver has no reported position")
	ErrInvalidPosition = errors.New("position out of range")
	ErrInvalidRadius   = errors.New("radius must be positive")
	ErrInvalidLimit    = errors.New("max results must be positive")
)

// Pool indexes driver snapshots at two hex-grid resolutions: a fine level
// reserved for tight same-cell lookups and a coarse level that query
// traversal walks ring by ring. One RWMutex guards all three maps. Upsert,
// Remove and EvictStale take the write lock; FindNearby and Stats take the
// read lock, so queries run concurrently with each other and never block
// each other out. Nothing blocking happens under either lock.
//
// Snapshots are immutable captures. Status changes reach the index through a
// fresh Upsert (the driver service reindexes eagerly on status change), so a
// query never sees a status older than the last completed Upsert.
type Pool struct {
	fineRes      int
	coarseRes    int
	coarseEdgeKm float64

	staleness    time.Duration
	cutoff       time.Duration
	tieThreshold float64
	speedFloor   float64
	trafficCoeff float64

	now func() time.Time

	mu     sync.RWMutex
	fine   map[h3.Cell]map[types.ID]*snapshot
	coarse map[h3.Cell]map[types.ID]*snapshot
	byID   map[types.ID]*snapshot
}

// NewPool validates both grid resolutions against the hex library and
// precomputes the coarse edge length used for ring sizing. A resolution the
// library rejects is a startup failure, not a degraded mode.
func NewPool(cfg config.DispatchConfig) (*Pool, error) {
	edgeKm, err := h3.HexagonEdgeLengthAvgKm(cfg.CoarseResolution)
	if err != nil {
		return nil, fmt.Errorf("hex grid: coarse resolution %d: %w", cfg.CoarseResolution, err)
	}
	if _, err := h3.HexagonEdgeLengthAvgKm(cfg.FineResolution); err != nil {
		return nil, fmt.Errorf("hex grid: fine resolution %d: %w", cfg.FineResolution, err)
	}
	return &Pool{
		fineRes:      cfg.FineResolution,
		coarseRes:    cfg.CoarseResolution,
		coarseEdgeKm: edgeKm,
		staleness:    time.Duration(cfg.StalenessSeconds) * time.Second,
		cutoff:       time.Duration(cfg.EvictionCutoffSeconds) * time.Second,
		tieThreshold: cfg.RatingTieThreshold,
		speedFloor:   cfg.SpeedFloorKmh,
		trafficCoeff: cfg.TrafficCoefficient,
		now:          time.Now,
		fine:         make(map[h3.Cell]map[types.ID]*snapshot),
		coarse:       make(map[h3.Cell]map[types.ID]*snapshot),
		byID:         make(map[types.ID]*snapshot),
	}, nil
}

// Upsert replaces the driver's snapshot with a fresh capture of its current
// state. Removal of the old snapshot and insertion of the new one happen
// under one write lock, so no reader ever sees the driver in two cells or in
// none. The capture's timestamp is the driver's last position-update time,
// which is what staleness filtering and eviction measure.
func (p *Pool) Upsert(d *driver.Driver) error {
	if d == nil {
		return ErrNilDriver
	}
	st := d.State()
	if st.UpdatedAt.IsZero() {
		return ErrNoPosition
	}
	if !st.Position.Valid() {
		return ErrInvalidPosition
	}
	fine, coarse, err := p.cellsAt(st.Position)
	if err != nil {
		return err
	}
	snap := &snapshot{
		id:         d.ID,
		position:   st.Position,
		updatedAt:  st.UpdatedAt,
		fineCell:   fine,
		coarseCell: coarse,
		headingDeg: st.HeadingDeg,
		speedKmh:   st.SpeedKmh,
		tier:       d.Tier,
		status:     st.Status,
		rating:     st.Rating,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.byID[d.ID]; ok {
		p.removeLocked(old)
	}
	p.insertLocked(snap)
	return nil
}

// Remove drops the driver's snapshot from both index levels. Removing an
// absent id is a no-op; the return value reports whether anything was
// removed.
func (p *Pool) Remove(id types.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.byID[id]
	if !ok {
		return false
	}
	p.removeLocked(s)
	return true
}

// FindNearby returns the eligible drivers within RadiusKm of the origin,
// ranked by the dispatch policy and truncated to MaxResults. The ring walk
// over-covers relative to a circle; the great-circle filter restores radius
// correctness.
func (p *Pool) FindNearby(q Query) ([]Candidate, error) {
	if !q.Origin.Valid() {
		return nil, ErrInvalidPosition
	}
	if q.RadiusKm <= 0 {
		return nil, ErrInvalidRadius
	}
	if q.MaxResults <= 0 {
		return nil, ErrInvalidLimit
	}
	originCell, err := h3.LatLngToCell(h3.NewLatLng(q.Origin.Lat, q.Origin.Lng), p.coarseRes)
	if err != nil {
		return nil, fmt.Errorf("origin cell: %w", err)
	}
	ring, err := h3.GridDisk(originCell, p.ringSize(q.RadiusKm))
	if err != nil {
		return nil, fmt.Errorf("grid disk: %w", err)
	}

	radiusM := q.RadiusKm * 1000
	now := p.now()

	p.mu.RLock()
	var out []Candidate
	for _, cell := range ring {
		for _, s := range p.coarse[cell] {
			if s.status != driver.StatusAvailable {
				continue
			}
			if q.Tier != "" && s.tier != q.Tier {
				continue
			}
			if now.Sub(s.updatedAt) > p.staleness {
				continue
			}
			dist := geo.DistanceMeters(q.Origin, s.position)
			if dist > radiusM {
				continue
			}
			out = append(out, Candidate{
				DriverID:       s.id,
				Tier:           s.tier,
				Status:         s.status,
				Rating:         s.rating,
				Position:       s.position,
				HeadingDeg:     s.headingDeg,
				SpeedKmh:       s.speedKmh,
				DistanceMeters: dist,
				EtaMinutes:     p.pickupEta(s, q.Origin, len(p.coarse[s.coarseCell])),
			})
		}
	}
	p.mu.RUnlock()

	p.rank(out)
	if len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

// EvictStale removes every driver whose last position update is older than
// the eviction cutoff and returns their ids so the caller can clean up any
// mirrored state. The janitor calls this on a fixed interval; the staleness
// filter in FindNearby already hides such drivers in the window before the
// sweep reaches them.
func (p *Pool) EvictStale() []types.ID {
	horizon := p.now().Add(-p.cutoff)
	p.mu.Lock()
	defer p.mu.Unlock()
	var victims []*snapshot
	for _, s := range p.byID {
		if s.updatedAt.Before(horizon) {
			victims = append(victims, s)
		}
	}
	evicted := make([]types.ID, len(victims))
	for i, s := range victims {
		p.removeLocked(s)
		evicted[i] = s.id
	}
	return evicted
}

// Stats reports the indexed driver count, the number of populated coarse
// cells, and the mean drivers per populated coarse cell.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Stats{
		ActiveDrivers: len(p.byID),
		CoarseCells:   len(p.coarse),
	}
	if s.CoarseCells > 0 {
		s.AverageLoad = float64(s.ActiveDrivers) / float64(s.CoarseCells)
	}
	return s
}

// insertLocked files the snapshot into both index levels and the id map.
// Callers hold the write lock.
func (p *Pool) insertLocked(s *snapshot) {
	fineBucket, ok := p.fine[s.fineCell]
	if !ok {
		fineBucket = make(map[types.ID]*snapshot)
		p.fine[s.fineCell] = fineBucket
	}
	fineBucket[s.id] = s

	coarseBucket, ok := p.coarse[s.coarseCell]
	if !ok {
		coarseBucket = make(map[types.ID]*snapshot)
		p.coarse[s.coarseCell] = coarseBucket
	}
	coarseBucket[s.id] = s

	p.byID[s.id] = s
}

// removeLocked unfiles the snapshot and deletes buckets it leaves empty, so
// cell counts in Stats only ever reflect populated cells. Callers hold the
// write lock.
func (p *Pool) removeLocked(s *snapshot) {
	if bucket, ok := p.fine[s.fineCell]; ok {
		delete(bucket, s.id)
		if len(bucket) == 0 {
			delete(p.fine, s.fineCell)
		}
	}
	if bucket, ok := p.coarse[s.coarseCell]; ok {
		delete(bucket, s.id)
		if len(bucket) == 0 {
			delete(p.coarse, s.coarseCell)
		}
	}
	delete(p.byID, s.id)
}

func (p *Pool) cellsAt(pt types.Point) (h3.Cell, h3.Cell, error) {
	ll := h3.NewLatLng(pt.Lat, pt.Lng)
	fine, err := h3.LatLngToCell(ll, p.fineRes)
	if err != nil {
		return 0, 0, fmt.Errorf("fine cell: %w", err)
	}
	coarse, err := h3.LatLngToCell(ll, p.coarseRes)
	if err != nil {
		return 0, 0, fmt.Errorf("coarse cell: %w", err)
	}
	return fine, coarse, nil
}

// ringSize converts a search radius to a grid-disk size: the smallest ring
// count covering the radius at the coarse resolution, never less than 1 so
// the origin's own cell is always searched.
func (p *Pool) ringSize(radiusKm float64) int {
	k := int(math.Ceil(radiusKm / p.coarseEdgeKm))
	if k < 1 {
		k = 1
	}
	return k
}
