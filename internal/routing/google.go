// README: Google Directions adapter behind a circuit breaker.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"github.com/get2yaheart/get2ya/internal/types"
)

// GoogleEstimator routes through the Google Directions API. The breaker
// opens after repeated failures so a dead upstream costs one error check
// instead of a timeout per trip; compose with Fallback to keep estimates
// flowing while it is open.
type GoogleEstimator struct {
	client  *maps.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewGoogleEstimator(apiKey string, log *zap.Logger) (*GoogleEstimator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "google-directions",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &GoogleEstimator{client: client, breaker: breaker, log: log}, nil
}

func (e *GoogleEstimator) EstimateRoute(ctx context.Context, origin, dest types.Point) (Estimate, error) {
	res, err := e.breaker.Execute(func() (interface{}, error) {
		est, err := e.directions(ctx, origin, dest)
		if err != nil {
			return nil, err
		}
		return est, nil
	})
	if err != nil {
		return Estimate{}, err
	}
	return res.(Estimate), nil
}

func (e *GoogleEstimator) directions(ctx context.Context, origin, dest types.Point) (Estimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := e.client.Directions(ctx, r)
	if err != nil {
		return Estimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Estimate{}, errors.New("no route found")
	}
	leg := routes[0].Legs[0]
	return Estimate{
		Duration:       leg.Duration,
		DistanceMeters: leg.Distance.Meters,
		Polyline:       routes[0].OverviewPolyline.Points,
	}, nil
}
