// README: Rider service handles registration and position updates.
package rider

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	ErrNotFound   = errors.New("rider not found")
	ErrConflict   = errors.New("rider already registered")
	ErrBadRequest = errors.New("bad request")
)

type Service struct {
	store *Store
	log   *zap.Logger

	now func() time.Time
}

func NewService(store *Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

type RegisterCommand struct {
	ID            types.ID
	Name          string
	PaymentMethod string
	Rating        float64
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Rider, error) {
	if cmd.ID == "" {
		return nil, ErrBadRequest
	}
	r := New(cmd.ID, cmd.Name, cmd.PaymentMethod, cmd.Rating)
	if !s.store.Put(r) {
		return nil, ErrConflict
	}
	s.log.Info("rider registered", zap.String("rider_id", string(cmd.ID)))
	return r, nil
}

// UpdateLocation records the rider's position. Clients read it back to
// prefill the pickup point of a trip request.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, p types.Point) (*State, error) {
	if !p.Valid() {
		return nil, ErrBadRequest
	}
	r, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r.UpdateLocation(p, s.now()), nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Rider, error) {
	r, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}
