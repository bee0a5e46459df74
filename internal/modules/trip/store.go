// README: Trip store backed by PostgreSQL.
package trip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get2yaheart/get2ya/internal/types"
)

// PGStore persists trips with optimistic status updates. The status and
// status_version guards in UpdateStatus make every transition win at most
// once regardless of concurrent writers.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (
			id, rider_id, driver_id, status, status_version, tier,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			surge, estimated_fare, final_fare, currency,
			route_distance_m, route_duration_s, route_polyline, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18
		)`,
		string(t.ID),
		string(t.RiderID),
		toStringPtr(t.DriverID),
		string(t.Status),
		t.StatusVersion,
		string(t.Tier),
		t.Pickup.Lat, t.Pickup.Lng,
		t.Dropoff.Lat, t.Dropoff.Lng,
		t.Surge,
		t.EstimatedFare.Amount,
		toIntPtr(t.FinalFare),
		t.EstimatedFare.Currency,
		t.RouteDistanceM,
		t.RouteDurationS,
		t.RoutePolyline,
		t.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, rider_id, driver_id, status, status_version, tier,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       surge, estimated_fare, final_fare, currency,
		       route_distance_m, route_duration_s, route_polyline, cancel_reason,
		       created_at, assigned_at, started_at, completed_at, cancelled_at
		FROM trips
		WHERE id = $1`, string(id),
	)

	var t Trip
	var currency string
	var driverID sql.NullString
	var finalFare sql.NullInt64
	var cancelReason sql.NullString
	var assignedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.RiderID, &driverID, &t.Status, &t.StatusVersion, &t.Tier,
		&t.Pickup.Lat, &t.Pickup.Lng, &t.Dropoff.Lat, &t.Dropoff.Lng,
		&t.Surge, &t.EstimatedFare.Amount, &finalFare, &currency,
		&t.RouteDistanceM, &t.RouteDurationS, &t.RoutePolyline, &cancelReason,
		&t.CreatedAt, &assignedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.EstimatedFare.Currency = currency
	if driverID.Valid {
		d := types.ID(driverID.String)
		t.DriverID = &d
	}
	if finalFare.Valid {
		v := types.Money{Amount: finalFare.Int64, Currency: currency}
		t.FinalFare = &v
	}
	if cancelReason.Valid {
		t.CancelReason = &cancelReason.String
	}
	t.AssignedAt = toTimePtr(assignedAt)
	t.StartedAt = toTimePtr(startedAt)
	t.CompletedAt = toTimePtr(completedAt)
	t.CancelledAt = toTimePtr(cancelledAt)
	return &t, nil
}

// StatusUpdate carries the fields a transition may settle alongside the
// status itself. Nil fields keep their current value.
type StatusUpdate struct {
	DriverID  *types.ID
	FinalFare *types.Money
	Reason    *string
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, u StatusUpdate) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    final_fare = COALESCE($3, final_fare),
		    cancel_reason = COALESCE($4, cancel_reason),
		    assigned_at = CASE WHEN $1 = 'ASSIGNED' THEN NOW() ELSE assigned_at END,
		    started_at = CASE WHEN $1 = 'IN_PROGRESS' THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN NOW() ELSE cancelled_at END
		WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(to),
		toStringPtr(u.DriverID),
		toIntPtr(u.FinalFare),
		u.Reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_state_events (
			trip_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.TripID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *PGStore) HasActiveByRider(ctx context.Context, riderID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trips
			WHERE rider_id = $1
			  AND status IN ('REQUESTED','ASSIGNED','IN_PROGRESS')
		)`, string(riderID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toIntPtr(v *types.Money) *int64 {
	if v == nil {
		return nil
	}
	n := v.Amount
	return &n
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
