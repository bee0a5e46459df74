// README: Trip aggregate and status definitions.
package trip

import (
	"time"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

type Status string

const (
	StatusNone       Status = "NONE"
	StatusRequested  Status = "REQUESTED"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Trip is one ride from request to completion. Fare amounts are in the
// currency's smallest unit; route figures come from the routing estimate
// taken at request time.
type Trip struct {
	ID             types.ID     `json:"id"`
	RiderID        types.ID     `json:"rider_id"`
	DriverID       *types.ID    `json:"driver_id,omitempty"`
	Status         Status       `json:"status"`
	StatusVersion  int          `json:"status_version"`
	Tier           driver.Tier  `json:"tier"`
	Pickup         types.Point  `json:"pickup"`
	Dropoff        types.Point  `json:"dropoff"`
	Surge          float64      `json:"surge"`
	EstimatedFare  types.Money  `json:"estimated_fare"`
	FinalFare      *types.Money `json:"final_fare,omitempty"`
	RouteDistanceM int          `json:"route_distance_m"`
	RouteDurationS int          `json:"route_duration_s"`
	RoutePolyline  string       `json:"route_polyline,omitempty"`
	CancelReason   *string      `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	AssignedAt     *time.Time   `json:"assigned_at,omitempty"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CancelledAt    *time.Time   `json:"cancelled_at,omitempty"`
}

// Event is one row of the trip's status history.
type Event struct {
	ID         int64
	TripID     types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the trip state flow as code. Completed and
// cancelled are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:  {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the trip still occupies its rider.
func (s Status) Active() bool {
	return s == StatusRequested || s == StatusAssigned || s == StatusInProgress
}
