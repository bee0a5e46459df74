// README: Pricing service computes fare quotes.
package pricing

import (
	"context"
	"errors"
	"math"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

var (
	ErrNoRate          = errors.New("no rate for tier")
	ErrNegativeMeasure = errors.New("distance and duration must be non-negative")
)

// Service resolves a tier's rate and turns route measures into a fare.
// With a nil store it prices from the built-in schedule.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Quote prices a ride of the given tier. Surge values at or below zero are
// treated as 1.0.
func (s *Service) Quote(ctx context.Context, tier driver.Tier, distanceKm, durationMin, surge float64) (Quote, error) {
	rate, err := s.rateFor(ctx, tier)
	if err != nil {
		return Quote{}, err
	}
	return Compute(rate, distanceKm, durationMin, surge)
}

func (s *Service) rateFor(ctx context.Context, tier driver.Tier) (Rate, error) {
	if s.store != nil {
		return s.store.GetRate(ctx, tier)
	}
	rate, ok := DefaultRates()[tier]
	if !ok {
		return Rate{}, ErrNoRate
	}
	return rate, nil
}

// Compute applies a rate to route measures. Each leg is rounded to a whole
// minor unit before summing so breakdown legs always add up to the total.
func Compute(rate Rate, distanceKm, durationMin, surge float64) (Quote, error) {
	if distanceKm < 0 || durationMin < 0 {
		return Quote{}, ErrNegativeMeasure
	}
	if surge <= 0 {
		surge = 1.0
	}

	distance := int64(math.Round(float64(rate.PerKm) * distanceKm))
	duration := int64(math.Round(float64(rate.PerMin) * durationMin))
	subtotal := rate.BaseFare + distance + duration
	total := int64(math.Round(float64(subtotal) * surge))

	return Quote{
		Fare:  types.Money{Amount: total, Currency: rate.Currency},
		Surge: surge,
		Breakdown: map[string]int64{
			"base":     rate.BaseFare,
			"distance": distance,
			"time":     duration,
			"surge":    total - subtotal,
		},
	}, nil
}
