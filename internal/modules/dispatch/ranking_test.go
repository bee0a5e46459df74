// README: Ranking policy tests. Rating dominance, ETA tie-breaks, and the
// pickup estimate formula.
package dispatch

import (
	"math"
	"reflect"
	"testing"

	"github.com/get2yaheart/get2ya/internal/geo"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

func TestRank_RatingDominatesDistance(t *testing.T) {
	p := newTestPool(t)
	origin := types.Point{Lat: 10, Lng: 106}

	// Higher-rated driver is farther away; a > 0.3 rating gap must still win.
	mustUpsert(t, p, testDriver(t, "near-low", "sedan", 4.0, types.Point{Lat: 10.0027, Lng: 106}, baseTime)) // ~300 m
	mustUpsert(t, p, testDriver(t, "far-high", "sedan", 4.5, types.Point{Lat: 10.0072, Lng: 106}, baseTime)) // ~800 m

	got, err := p.FindNearby(Query{Origin: origin, RadiusKm: 2, MaxResults: 5})
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if want := []types.ID{"far-high", "near-low"}; !reflect.DeepEqual(resultIDs(got), want) {
		t.Fatalf("ranked order = %v, want %v", resultIDs(got), want)
	}
}

func TestRank_EtaBreaksRatingTies(t *testing.T) {
	p := newTestPool(t)
	origin := types.Point{Lat: 10, Lng: 106}

	// 0.1 rating gap is inside the tie threshold, so the closer driver wins
	// even though its rating is lower.
	mustUpsert(t, p, testDriver(t, "near", "sedan", 4.4, types.Point{Lat: 10.0027, Lng: 106}, baseTime)) // ~300 m
	mustUpsert(t, p, testDriver(t, "far", "sedan", 4.5, types.Point{Lat: 10.0072, Lng: 106}, baseTime))  // ~800 m

	got, err := p.FindNearby(Query{Origin: origin, RadiusKm: 2, MaxResults: 5})
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if want := []types.ID{"near", "far"}; !reflect.DeepEqual(resultIDs(got), want) {
		t.Fatalf("ranked order = %v, want %v", resultIDs(got), want)
	}
}

func TestRank_AvailabilityLeg(t *testing.T) {
	p := newTestPool(t)

	cs := []Candidate{
		{DriverID: "busy", Status: driver.StatusOnTrip, Rating: 5.0, EtaMinutes: 1},
		{DriverID: "avail", Status: driver.StatusAvailable, Rating: 3.0, EtaMinutes: 9},
	}
	p.rank(cs)
	if cs[0].DriverID != "avail" {
		t.Fatalf("first = %s, want the available driver", cs[0].DriverID)
	}

	// Between two non-available candidates the rating leg decides.
	cs = []Candidate{
		{DriverID: "off", Status: driver.StatusOffline, Rating: 3.0, EtaMinutes: 1},
		{DriverID: "busy", Status: driver.StatusOnTrip, Rating: 5.0, EtaMinutes: 9},
	}
	p.rank(cs)
	if cs[0].DriverID != "busy" {
		t.Fatalf("first = %s, want the higher-rated one", cs[0].DriverID)
	}
}

func TestPickupEta(t *testing.T) {
	p := newTestPool(t)
	origin := types.Point{Lat: 10.009, Lng: 106}
	s := &snapshot{position: types.Point{Lat: 10, Lng: 106}}

	roadKm := geo.ApproxRoadDistanceMeters(s.position, origin) / 1000

	// Stationary driver gets the 20 km/h floor.
	want := roadKm / 20 * 1 * 60
	if got := p.pickupEta(s, origin, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("eta(speed 0, load 0) = %v, want %v", got, want)
	}

	// Crawling below the floor is treated the same as stationary.
	s.speedKmh = 10
	if got := p.pickupEta(s, origin, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("eta(speed 10, load 0) = %v, want %v (floored)", got, want)
	}

	// A fast driver beats the floor.
	s.speedKmh = 60
	fast := roadKm / 60 * 1 * 60
	if got := p.pickupEta(s, origin, 0); math.Abs(got-fast) > 1e-9 {
		t.Errorf("eta(speed 60, load 0) = %v, want %v", got, fast)
	}
	if fast >= want {
		t.Errorf("fast eta %v not below floored eta %v", fast, want)
	}

	// Ten drivers in the cell inflate the estimate by 1 + 0.05*10.
	s.speedKmh = 0
	congested := roadKm / 20 * 1.5 * 60
	if got := p.pickupEta(s, origin, 10); math.Abs(got-congested) > 1e-9 {
		t.Errorf("eta(speed 0, load 10) = %v, want %v", got, congested)
	}
}
