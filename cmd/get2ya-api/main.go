// README: Entry point; loads config, wires the dispatch stack, starts the
// HTTP server and the eviction janitor.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/get2yaheart/get2ya/internal/config"
	httptransport "github.com/get2yaheart/get2ya/internal/http"
	"github.com/get2yaheart/get2ya/internal/infra"
	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/pricing"
	"github.com/get2yaheart/get2ya/internal/modules/rider"
	"github.com/get2yaheart/get2ya/internal/modules/trip"
	"github.com/get2yaheart/get2ya/internal/observability"
	"github.com/get2yaheart/get2ya/internal/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.NewLogger(cfg.Env, "get2ya-api")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres backs trips and rate schedules. Without a DSN the API runs
	// entirely in memory, which is enough for development and benchmarks.
	var tripStore trip.Store
	var pricingSvc *pricing.Service
	if cfg.DB.DSN != "" {
		dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("postgres init", zap.Error(err))
		}
		defer dbPool.Close()
		tripStore = trip.NewPGStore(dbPool)
		pricingSvc = pricing.NewService(pricing.NewStore(dbPool))
	} else {
		logger.Warn("no db dsn configured, trips and rates are in-memory only")
		tripStore = trip.NewMemStore()
		pricingSvc = pricing.NewService(nil)
	}

	var mirror *dispatch.Store
	if cfg.Redis.Addr != "" {
		redisClient := infra.NewRedis(cfg.Redis.Addr)
		defer redisClient.Close()
		mirror = dispatch.NewStore(redisClient)
	}

	pool, err := dispatch.NewPool(cfg.Dispatch)
	if err != nil {
		logger.Fatal("dispatch pool init", zap.Error(err))
	}
	dispatchSvc := dispatch.NewService(pool, mirror, cfg.Dispatch, logger)

	driverSvc := driver.NewService(driver.NewStore(), dispatchSvc, logger)
	riderSvc := rider.NewService(rider.NewStore(), logger)
	tripSvc := trip.NewService(tripStore, dispatchSvc, driverSvc, pricingSvc,
		buildEstimator(cfg.Maps, logger), logger)

	metrics := observability.NewMetrics("get2ya-api")
	metrics.MustRegister(observability.NewPoolCollector(func() observability.PoolStats {
		s := pool.Stats()
		return observability.PoolStats{
			ActiveDrivers: s.ActiveDrivers,
			CoarseCells:   s.CoarseCells,
			AverageLoad:   s.AverageLoad,
		}
	}))

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Driver:   driverSvc,
		Rider:    riderSvc,
		Trip:     tripSvc,
		Dispatch: dispatchSvc,
		Metrics:  metrics,
		Log:      logger,
		Env:      cfg.Env,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatchSvc.RunJanitor(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
	logger.Info("shut down cleanly")
}

// buildEstimator picks the routing stack: Google with a planar fallback when
// an API key is configured, plain planar otherwise.
func buildEstimator(cfg config.MapsConfig, logger *zap.Logger) routing.Estimator {
	planar := routing.NewPlanarEstimator(cfg.FallbackSpeedKmh)
	if cfg.APIKey == "" {
		return planar
	}
	google, err := routing.NewGoogleEstimator(cfg.APIKey, logger)
	if err != nil {
		logger.Warn("maps client init failed, falling back to planar estimates", zap.Error(err))
		return planar
	}
	return routing.NewFallback(google, planar, logger)
}
