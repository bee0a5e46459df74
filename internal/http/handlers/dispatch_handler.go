// README: Dispatch handlers for nearby queries and pool stats.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
)

type DispatchHandler struct {
	dispatch *dispatch.Service
}

func NewDispatchHandler(svc *dispatch.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: svc}
}

// Nearby serves ranked driver candidates around a point. lat and lng are
// required; radius_km, max, and tier fall back to the service defaults.
func (h *DispatchHandler) Nearby(c *gin.Context) {
	lat, okLat := floatQuery(c, "lat")
	lng, okLng := floatQuery(c, "lng")
	if !okLat || !okLng {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}

	q := dispatch.Query{}
	q.Origin.Lat = lat
	q.Origin.Lng = lng
	if v, ok := floatQuery(c, "radius_km"); ok {
		q.RadiusKm = v
	}
	if v, ok := intQuery(c, "max"); ok {
		q.MaxResults = v
	}
	if tier := c.Query("tier"); tier != "" {
		q.Tier = driver.Tier(tier)
	}

	candidates, err := h.dispatch.FindNearby(c.Request.Context(), q)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

func (h *DispatchHandler) Stats(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.dispatch.Stats(c.Request.Context()))
}
