// README: Dispatch domain model. Query parameters, ranked candidates, and
// pool statistics.
package dispatch

import (
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

// Query carries the parameters of a nearby-driver search. An empty Tier
// matches drivers of any tier.
type Query struct {
	Origin     types.Point
	RadiusKm   float64
	MaxResults int
	Tier       driver.Tier
}

// Candidate is one ranked result of a nearby-driver search. DistanceMeters is
// the great-circle distance from the query origin; EtaMinutes is the
// load-adjusted pickup estimate used for ranking.
type Candidate struct {
	DriverID       types.ID      `json:"driver_id"`
	Tier           driver.Tier   `json:"tier"`
	Status         driver.Status `json:"status"`
	Rating         float64       `json:"rating"`
	Position       types.Point   `json:"position"`
	HeadingDeg     float64       `json:"heading_deg"`
	SpeedKmh       float64       `json:"speed_kmh"`
	DistanceMeters float64       `json:"distance_meters"`
	EtaMinutes     float64       `json:"eta_minutes"`
}

// Stats is a point-in-time summary of the pool: how many drivers are
// indexed, how many coarse cells they occupy, and the mean drivers per
// populated coarse cell.
type Stats struct {
	ActiveDrivers int     `json:"active_drivers"`
	CoarseCells   int     `json:"coarse_cells"`
	AverageLoad   float64 `json:"average_load"`
}

// snapshot is the immutable record the pool keeps per driver. It captures
// the driver's state at index time; the cell ids are always derived from the
// position stored alongside them. A new position or status produces a whole
// new snapshot, never an in-place edit.
type snapshot struct {
	id         types.ID
	position   types.Point
	updatedAt  time.Time
	fineCell   h3.Cell
	coarseCell h3.Cell
	headingDeg float64
	speedKmh   float64
	tier       driver.Tier
	status     driver.Status
	rating     float64
}
