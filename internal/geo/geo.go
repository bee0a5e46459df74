// Package geo — pure geographic computation primitives shared by the
// matching engine.
package geo

import (
	"math"

	"github.com/get2yaheart/get2ya/internal/types"
)

// earthRadiusM is the mean Earth radius used by the Haversine formula.
const earthRadiusM = 6371000.0

// metersPerDegreeLat approximates one degree of latitude.
const metersPerDegreeLat = 111000.0

// DistanceMeters returns the great-circle (Haversine) distance in meters
// between two points in decimal degrees.
func DistanceMeters(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// DistanceKm returns the great-circle distance in kilometres.
func DistanceKm(a, b types.Point) float64 {
	return DistanceMeters(a, b) / 1000.0
}

// ApproxRoadDistanceMeters approximates road distance with a
// latitude-corrected planar formula: degree deltas converted to meters
// (longitude scaled by cos of the origin latitude), then the Euclidean norm
// of the two. It is a stand-in until a routing provider is integrated and
// knows nothing about road topology.
func ApproxRoadDistanceMeters(a, b types.Point) float64 {
	dLatM := (b.Lat - a.Lat) * metersPerDegreeLat
	dLngM := (b.Lng - a.Lng) * metersPerDegreeLat * math.Cos(degreesToRadians(a.Lat))
	return math.Sqrt(dLatM*dLatM + dLngM*dLngM)
}

// Bearing returns the initial great-circle bearing from a to b in compass
// degrees, normalized to [0,360).
func Bearing(a, b types.Point) float64 {
	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) - math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLng)

	deg := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(deg+360.0, 360.0)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
