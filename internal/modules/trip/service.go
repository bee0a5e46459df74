// README: Trip service orchestrates dispatch, driver claim, pricing, and
// persistence for the trip lifecycle.
package trip

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/pricing"
	"github.com/get2yaheart/get2ya/internal/routing"
	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("trip not found")
	ErrConflict     = errors.New("trip state conflict")
	ErrActiveTrip   = errors.New("rider has active trip")
	ErrBadRequest   = errors.New("bad request")
)

// Store is the persistence surface the service needs. *PGStore implements
// it; tests substitute an in-memory version.
type Store interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, u StatusUpdate) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	HasActiveByRider(ctx context.Context, riderID types.ID) (bool, error)
}

// Dispatch is the slice of the dispatch engine the trip service talks to:
// ranked candidate queries plus the reindex that makes a claimed driver's
// new status visible to other queries immediately.
type Dispatch interface {
	FindNearby(ctx context.Context, q dispatch.Query) ([]dispatch.Candidate, error)
	IndexDriver(ctx context.Context, d *driver.Driver) error
}

// Drivers resolves candidate ids to live driver handles.
type Drivers interface {
	Get(ctx context.Context, id types.ID) (*driver.Driver, error)
}

type Pricing interface {
	Quote(ctx context.Context, tier driver.Tier, distanceKm, durationMin, surge float64) (pricing.Quote, error)
}

type Service struct {
	store    Store
	dispatch Dispatch
	drivers  Drivers
	pricing  Pricing
	router   routing.Estimator
	log      *zap.Logger

	now func() time.Time
}

func NewService(store Store, dsp Dispatch, drivers Drivers, pr Pricing, router routing.Estimator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		dispatch: dsp,
		drivers:  drivers,
		pricing:  pr,
		router:   router,
		log:      log,
		now:      time.Now,
	}
}

type RequestCommand struct {
	RiderID types.ID
	Pickup  types.Point
	Dropoff types.Point
	Tier    driver.Tier
	Surge   float64
}

type StartCommand struct {
	TripID types.ID
}

type CompleteCommand struct {
	TripID types.ID
}

type CancelCommand struct {
	TripID    types.ID
	ActorType string
	Reason    string
}

// Request creates a trip and immediately tries to assign a driver. A request
// with no assignable driver is not an error: the trip stays REQUESTED and
// the caller may cancel it or poll for a later assignment.
func (s *Service) Request(ctx context.Context, cmd RequestCommand) (*Trip, error) {
	if cmd.RiderID == "" || cmd.Tier == "" {
		return nil, ErrBadRequest
	}
	if !cmd.Pickup.Valid() || !cmd.Dropoff.Valid() {
		return nil, ErrBadRequest
	}
	active, err := s.store.HasActiveByRider(ctx, cmd.RiderID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveTrip
	}

	surge := cmd.Surge
	if surge <= 0 {
		surge = 1.0
	}

	est, err := s.router.EstimateRoute(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		s.log.Warn("route estimate failed", zap.Error(err))
		est = routing.Estimate{}
	}

	fare := types.Money{}
	if q, err := s.pricing.Quote(ctx, cmd.Tier, float64(est.DistanceMeters)/1000, est.Duration.Minutes(), surge); err == nil {
		fare = q.Fare
	} else if errors.Is(err, pricing.ErrNoRate) {
		return nil, ErrBadRequest
	} else {
		s.log.Warn("fare estimate failed", zap.Error(err))
	}

	now := s.now()
	t := &Trip{
		ID:             newID(),
		RiderID:        cmd.RiderID,
		Status:         StatusRequested,
		StatusVersion:  0,
		Tier:           cmd.Tier,
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		Surge:          surge,
		EstimatedFare:  fare,
		RouteDistanceM: est.DistanceMeters,
		RouteDurationS: int(est.Duration.Seconds()),
		RoutePolyline:  est.Polyline,
		CreatedAt:      now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusRequested,
		ActorType:  "rider",
		ActorID:    &cmd.RiderID,
		CreatedAt:  now,
	})

	claimed := s.tryAssign(ctx, t)
	if claimed == nil {
		return t, nil
	}
	return s.store.Get(ctx, t.ID)
}

// tryAssign walks the ranked candidates and claims the first driver whose
// AVAILABLE→ON_TRIP swap wins. Assignment failures never fail the request;
// they leave the trip REQUESTED.
func (s *Service) tryAssign(ctx context.Context, t *Trip) *driver.Driver {
	candidates, err := s.dispatch.FindNearby(ctx, dispatch.Query{Origin: t.Pickup, Tier: t.Tier})
	if err != nil {
		s.log.Warn("candidate query failed", zap.String("trip_id", string(t.ID)), zap.Error(err))
		return nil
	}

	for _, c := range candidates {
		d, err := s.drivers.Get(ctx, c.DriverID)
		if err != nil {
			continue
		}
		if !d.TransitionStatus(driver.StatusAvailable, driver.StatusOnTrip) {
			continue
		}
		if err := s.dispatch.IndexDriver(ctx, d); err != nil {
			s.log.Warn("claimed driver reindex failed",
				zap.String("driver_id", string(d.ID)), zap.Error(err))
		}

		ok, err := s.store.UpdateStatus(ctx, t.ID, StatusRequested, StatusAssigned, t.StatusVersion, StatusUpdate{DriverID: &d.ID})
		if err != nil || !ok {
			s.releaseDriver(ctx, d.ID)
			if err != nil {
				s.log.Error("assign persist failed", zap.String("trip_id", string(t.ID)), zap.Error(err))
			}
			return nil
		}
		_ = s.store.AppendEvent(ctx, &Event{
			TripID:     t.ID,
			FromStatus: StatusRequested,
			ToStatus:   StatusAssigned,
			ActorType:  "system",
			CreatedAt:  s.now(),
		})
		s.log.Info("trip assigned",
			zap.String("trip_id", string(t.ID)),
			zap.String("driver_id", string(d.ID)),
			zap.Float64("eta_minutes", c.EtaMinutes))
		return d
	}

	s.log.Info("no assignable drivers", zap.String("trip_id", string(t.ID)))
	return nil
}

// Start moves an assigned trip into IN_PROGRESS.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusInProgress) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusInProgress, t.StatusVersion, StatusUpdate{})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   StatusInProgress,
		ActorType:  "driver",
		ActorID:    t.DriverID,
		CreatedAt:  s.now(),
	})
	return nil
}

// Complete finishes the trip, settles the final fare, and returns the driver
// to the AVAILABLE pool.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return ErrInvalidState
	}
	final := t.EstimatedFare
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCompleted, t.StatusVersion, StatusUpdate{FinalFare: &final})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.releaseDriver(ctx, derefID(t.DriverID))
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   StatusCompleted,
		ActorType:  "driver",
		ActorID:    t.DriverID,
		CreatedAt:  s.now(),
	})
	return nil
}

// Cancel aborts the trip from any non-terminal state and frees the driver if
// one was holding it.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, t.ID, t.Status, StatusCancelled, t.StatusVersion, StatusUpdate{Reason: reason})
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.releaseDriver(ctx, derefID(t.DriverID))

	actorType := cmd.ActorType
	if actorType == "" {
		actorType = "rider"
	}
	actorID := t.DriverID
	if actorType == "rider" {
		actorID = &t.RiderID
	}
	_ = s.store.AppendEvent(ctx, &Event{
		TripID:     t.ID,
		FromStatus: t.Status,
		ToStatus:   StatusCancelled,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

// releaseDriver flips a trip's driver back to AVAILABLE and reindexes so the
// pool sees the status change right away. A driver who meanwhile went
// OFFLINE or logged out is left alone.
func (s *Service) releaseDriver(ctx context.Context, id types.ID) {
	if id == "" {
		return
	}
	d, err := s.drivers.Get(ctx, id)
	if err != nil {
		s.log.Info("released driver no longer registered", zap.String("driver_id", string(id)))
		return
	}
	if !d.TransitionStatus(driver.StatusOnTrip, driver.StatusAvailable) {
		return
	}
	if err := s.dispatch.IndexDriver(ctx, d); err != nil {
		s.log.Warn("released driver reindex failed",
			zap.String("driver_id", string(id)), zap.Error(err))
	}
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

func derefID(id *types.ID) types.ID {
	if id == nil {
		return ""
	}
	return *id
}
