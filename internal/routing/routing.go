// README: Route estimation. An Estimator yields duration/distance between
// two points; the planar estimator is the provider-free fallback.
package routing

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/geo"
	"github.com/get2yaheart/get2ya/internal/types"
)

// Estimate is a routed (or approximated) leg between two points. Polyline is
// empty when the estimator has no geometry to offer.
type Estimate struct {
	Duration       time.Duration
	DistanceMeters int
	Polyline       string
}

type Estimator interface {
	EstimateRoute(ctx context.Context, origin, dest types.Point) (Estimate, error)
}

const defaultPlanarSpeedKmh = 30.0

// PlanarEstimator derives estimates from the latitude-corrected planar
// approximation. It does not know road topology; it exists so trip pricing
// and ETAs keep working when no routing provider is configured or the
// provider is down.
type PlanarEstimator struct {
	speedKmh float64
}

func NewPlanarEstimator(speedKmh float64) *PlanarEstimator {
	if speedKmh <= 0 {
		speedKmh = defaultPlanarSpeedKmh
	}
	return &PlanarEstimator{speedKmh: speedKmh}
}

func (e *PlanarEstimator) EstimateRoute(_ context.Context, origin, dest types.Point) (Estimate, error) {
	meters := geo.ApproxRoadDistanceMeters(origin, dest)
	hours := meters / 1000 / e.speedKmh
	return Estimate{
		Duration:       time.Duration(hours * float64(time.Hour)),
		DistanceMeters: int(math.Round(meters)),
	}, nil
}

// Fallback tries the primary estimator and falls back to the secondary on
// any failure, including an open circuit breaker.
type Fallback struct {
	primary   Estimator
	secondary Estimator
	log       *zap.Logger
}

func NewFallback(primary, secondary Estimator, log *zap.Logger) *Fallback {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) EstimateRoute(ctx context.Context, origin, dest types.Point) (Estimate, error) {
	est, err := f.primary.EstimateRoute(ctx, origin, dest)
	if err == nil {
		return est, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		f.log.Warn("routing provider circuit open, using planar estimate")
	} else {
		f.log.Warn("routing provider failed, using planar estimate", zap.Error(err))
	}
	return f.secondary.EstimateRoute(ctx, origin, dest)
}
