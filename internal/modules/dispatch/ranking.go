// README: Ranking policy for nearby-driver queries.
package dispatch

import (
	"math"
	"sort"

	"github.com/get2yaheart/get2ya/internal/geo"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

// pickupEta estimates minutes to pickup: the planar road-distance
// approximation over the snapshot speed, inflated by a congestion factor
// proportional to driver density in the candidate's coarse cell. The speed
// floor keeps a momentarily stationary driver from looking infinitely far
// away.
func (p *Pool) pickupEta(s *snapshot, origin types.Point, cellLoad int) float64 {
	roadKm := geo.ApproxRoadDistanceMeters(s.position, origin) / 1000
	speed := s.speedKmh
	if speed < p.speedFloor {
		speed = p.speedFloor
	}
	traffic := 1 + p.trafficCoeff*float64(cellLoad)
	return roadKm / speed * traffic * 60
}

// rank orders candidates in place by the dispatch policy: available drivers
// first, then the higher rating when the gap exceeds the tie threshold, then
// the lower pickup estimate. The availability leg is redundant with the
// query's eligibility filter but keeps the order total for any candidate
// set.
func (p *Pool) rank(cs []Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if ra, rb := availabilityRank(a.Status), availabilityRank(b.Status); ra != rb {
			return ra < rb
		}
		if math.Abs(a.Rating-b.Rating) > p.tieThreshold {
			return a.Rating > b.Rating
		}
		return a.EtaMinutes < b.EtaMinutes
	})
}

func availabilityRank(s driver.Status) int {
	if s == driver.StatusAvailable {
		return 0
	}
	return 1
}
