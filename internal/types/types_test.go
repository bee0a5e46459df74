package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValid(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		valid bool
	}{
		{"Should accept a typical coordinate", Point{Lat: 10.77, Lng: 106.69}, true},
		{"Should accept the zero point", Point{}, true},
		{"Should accept the latitude limits", Point{Lat: 90, Lng: 0}, true},
		{"Should accept the longitude limits", Point{Lat: 0, Lng: -180}, true},
		{"Should reject latitude above 90", Point{Lat: 90.0001, Lng: 0}, false},
		{"Should reject latitude below -90", Point{Lat: -95, Lng: 0}, false},
		{"Should reject longitude above 180", Point{Lat: 0, Lng: 181}, false},
		{"Should reject longitude below -180", Point{Lat: 0, Lng: -200}, false},
		{"Should reject NaN latitude", Point{Lat: math.NaN(), Lng: 0}, false},
		{"Should reject NaN longitude", Point{Lat: 0, Lng: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.point.Valid())
		})
	}
}
