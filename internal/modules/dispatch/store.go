// README: Redis GEO mirror of indexed driver positions. The in-memory pool
// answers queries; the mirror is the shared view that survives restarts and
// is readable by tooling and other instances.
package dispatch

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/get2yaheart/get2ya/internal/types"
)

const driverGeoKey = "dispatch:drivers"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Upsert(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, driverGeoKey, string(id)).Err()
}

// RemoveAll drops a batch of drivers in one round trip. The janitor uses it
// after an eviction sweep.
func (s *Store) RemoveAll(ctx context.Context, ids []types.ID) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	return s.redis.ZRem(ctx, driverGeoKey, members...).Err()
}

// Nearby returns up to limit driver ids within radiusKm of p, closest first.
// The mirror knows nothing about status or staleness; callers wanting the
// ranked, filtered view query the pool instead.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
