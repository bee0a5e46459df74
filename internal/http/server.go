// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/get2yaheart/get2ya/internal/http/handlers"
	"github.com/get2yaheart/get2ya/internal/http/middleware"
	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/rider"
	"github.com/get2yaheart/get2ya/internal/modules/trip"
	"github.com/get2yaheart/get2ya/internal/observability"
)

type ServerDeps struct {
	Driver   *driver.Service
	Rider    *rider.Service
	Trip     *trip.Service
	Dispatch *dispatch.Service
	Metrics  *observability.Metrics
	Log      *zap.Logger
	Env      string
}

type Server struct {
	driver   *driver.Service
	rider    *rider.Service
	trip     *trip.Service
	dispatch *dispatch.Service
	metrics  *observability.Metrics
	log      *zap.Logger
	env      string
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		driver:   deps.Driver,
		rider:    deps.Rider,
		trip:     deps.Trip,
		dispatch: deps.Dispatch,
		metrics:  deps.Metrics,
		log:      log,
		env:      deps.Env,
	}
}

func (s *Server) Routes() http.Handler {
	if s.env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.Logging(s.log))
	if s.metrics != nil {
		r.Use(middleware.Metrics(s.metrics))
	}

	api := r.Group("/api")

	driverHandler := handlers.NewDriverHandler(s.driver)
	api.POST("/drivers", driverHandler.Register)
	api.POST("/drivers/:id/location", driverHandler.UpdateLocation)
	api.POST("/drivers/:id/status", driverHandler.SetStatus)
	api.DELETE("/drivers/:id", driverHandler.Logout)

	dispatchHandler := handlers.NewDispatchHandler(s.dispatch)
	api.GET("/drivers/nearby", dispatchHandler.Nearby)
	api.GET("/dispatch/stats", dispatchHandler.Stats)

	riderHandler := handlers.NewRiderHandler(s.rider)
	api.POST("/riders", riderHandler.Register)
	api.POST("/riders/:id/location", riderHandler.UpdateLocation)
	api.GET("/riders/:id", riderHandler.Get)

	tripHandler := handlers.NewTripHandler(s.trip)
	api.POST("/trips", tripHandler.Request)
	api.GET("/trips/:id", tripHandler.Get)
	api.POST("/trips/:id/start", tripHandler.Start)
	api.POST("/trips/:id/complete", tripHandler.Complete)
	api.POST("/trips/:id/cancel", tripHandler.Cancel)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return r
}
