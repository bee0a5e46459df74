// README: Dispatch service. Owns the pool, keeps the Redis mirror in step,
// and runs the eviction janitor.
package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/config"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

type Service struct {
	pool   *Pool
	mirror *Store
	cfg    config.DispatchConfig
	log    *zap.Logger
}

// NewService wires the pool to its mirror. mirror may be nil when no Redis
// is configured; everything then runs purely in memory.
func NewService(pool *Pool, mirror *Store, cfg config.DispatchConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{pool: pool, mirror: mirror, cfg: cfg, log: log}
}

// IndexDriver refreshes the driver's snapshot in the pool, then mirrors the
// position to Redis. The mirror write happens outside the pool lock and a
// mirror failure is logged, not surfaced: the pool alone is authoritative
// for matching.
func (s *Service) IndexDriver(ctx context.Context, d *driver.Driver) error {
	if err := s.pool.Upsert(d); err != nil {
		return err
	}
	if s.mirror != nil {
		st := d.State()
		if err := s.mirror.Upsert(ctx, d.ID, st.Position); err != nil {
			s.log.Warn("geo mirror upsert failed",
				zap.String("driver_id", string(d.ID)),
				zap.Error(err))
		}
	}
	return nil
}

// RemoveDriver drops the driver from the pool and, best effort, from the
// mirror.
func (s *Service) RemoveDriver(ctx context.Context, id types.ID) {
	s.pool.Remove(id)
	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, id); err != nil {
			s.log.Warn("geo mirror remove failed",
				zap.String("driver_id", string(id)),
				zap.Error(err))
		}
	}
}

// FindNearby runs a ranked pool query, applying the configured defaults when
// the caller leaves radius or limit unset.
func (s *Service) FindNearby(ctx context.Context, q Query) ([]Candidate, error) {
	if q.RadiusKm == 0 {
		q.RadiusKm = s.cfg.DefaultRadiusKm
	}
	if q.MaxResults == 0 {
		q.MaxResults = s.cfg.DefaultMaxResults
	}
	return s.pool.FindNearby(q)
}

func (s *Service) Stats(ctx context.Context) Stats {
	return s.pool.Stats()
}

// RunJanitor sweeps stale drivers out of the pool on the configured period
// until ctx is cancelled. Run it in its own goroutine next to the HTTP
// server.
func (s *Service) RunJanitor(ctx context.Context) {
	period := time.Duration(s.cfg.EvictionPeriodSeconds) * time.Second
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.log.Info("eviction janitor started", zap.Duration("period", period))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("eviction janitor stopped")
			return
		case <-ticker.C:
			evicted := s.pool.EvictStale()
			if len(evicted) == 0 {
				continue
			}
			s.log.Info("evicted stale drivers", zap.Int("count", len(evicted)))
			if s.mirror != nil {
				if err := s.mirror.RemoveAll(ctx, evicted); err != nil {
					s.log.Warn("geo mirror sweep failed", zap.Error(err))
				}
			}
		}
	}
}
