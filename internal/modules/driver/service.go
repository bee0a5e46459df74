// README: Driver service handles registration, pings, status, and logout.
package driver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	ErrNotFound   = errors.New("driver not found")
	ErrConflict   = errors.New("driver already registered")
	ErrBadRequest = errors.New("bad request")
)

// Index is the slice of the dispatch engine the driver service talks to.
type Index interface {
	IndexDriver(ctx context.Context, d *Driver) error
	RemoveDriver(ctx context.Context, id types.ID)
}

type Service struct {
	store *Store
	index Index
	log   *zap.Logger

	now func() time.Time
}

func NewService(store *Store, index Index, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, index: index, log: log, now: time.Now}
}

type RegisterCommand struct {
	ID      types.ID
	Vehicle string
	Rating  float64
}

// Register creates a driver in the AVAILABLE state. The driver becomes
// matchable once its first position ping arrives.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.ID == "" {
		return nil, ErrBadRequest
	}
	d := New(cmd.ID, cmd.Vehicle, cmd.Rating)
	if !s.store.Put(d) {
		return nil, ErrConflict
	}
	s.log.Info("driver registered",
		zap.String("driver_id", string(cmd.ID)),
		zap.String("tier", string(d.Tier)))
	return d, nil
}

type PingCommand struct {
	ID       types.ID
	Position types.Point
}

// Ping applies a position update to the driver's kinematic state and
// re-indexes it. Indexing happens after the state swap so the snapshot the
// pool captures already carries the fresh heading and speed. The returned
// state echoes the computed kinematics back to the caller.
func (s *Service) Ping(ctx context.Context, cmd PingCommand) (*State, error) {
	d, ok := s.store.Get(cmd.ID)
	if !ok {
		return nil, ErrNotFound
	}
	st := d.UpdateLocation(cmd.Position, s.now())
	if err := s.index.IndexDriver(ctx, d); err != nil {
		return nil, err
	}
	return st, nil
}

// SetStatus updates the driver's status. Going OFFLINE drops the driver from
// the index; any other transition reindexes so queries see the new status
// without waiting for the next ping.
func (s *Service) SetStatus(ctx context.Context, id types.ID, status Status) error {
	if !ValidStatus(status) {
		return ErrBadRequest
	}
	d, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	d.SetStatus(status)
	if status == StatusOffline {
		s.index.RemoveDriver(ctx, id)
		return nil
	}
	// A driver that has never reported a position has nothing to index yet.
	if d.State().UpdatedAt.IsZero() {
		return nil
	}
	return s.index.IndexDriver(ctx, d)
}

// Logout removes the driver from the index and the registry.
func (s *Service) Logout(ctx context.Context, id types.ID) error {
	if _, ok := s.store.Get(id); !ok {
		return ErrNotFound
	}
	s.index.RemoveDriver(ctx, id)
	s.store.Delete(id)
	s.log.Info("driver logged out", zap.String("driver_id", string(id)))
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	d, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}
