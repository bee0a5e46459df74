// README: Trip handlers for the request/start/complete/cancel lifecycle.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/trip"
	"github.com/get2yaheart/get2ya/internal/types"
)

type TripHandler struct {
	trip *trip.Service
}

func NewTripHandler(svc *trip.Service) *TripHandler {
	return &TripHandler{trip: svc}
}

type requestTripReq struct {
	RiderID    string  `json:"rider_id"`
	PickupLat  float64 `json:"pickup_lat"`
	PickupLng  float64 `json:"pickup_lng"`
	DropoffLat float64 `json:"dropoff_lat"`
	DropoffLng float64 `json:"dropoff_lng"`
	Tier       string  `json:"tier"`
	Surge      float64 `json:"surge"`
}

// Request creates a trip and, when a driver can be claimed, returns it
// already ASSIGNED. A trip with no assignable driver comes back REQUESTED.
func (h *TripHandler) Request(c *gin.Context) {
	var req requestTripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	t, err := h.trip.Request(c.Request.Context(), trip.RequestCommand{
		RiderID: types.ID(req.RiderID),
		Pickup:  types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff: types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		Tier:    driver.Tier(req.Tier),
		Surge:   req.Surge,
	})
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, t)
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trip.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, t)
}

func (h *TripHandler) Start(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.trip.Start(c.Request.Context(), trip.StartCommand{TripID: id}); err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"trip_id": id, "status": trip.StatusInProgress})
}

func (h *TripHandler) Complete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.trip.Complete(c.Request.Context(), trip.CompleteCommand{TripID: id}); err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"trip_id": id, "status": trip.StatusCompleted})
}

type cancelTripReq struct {
	ActorType string `json:"actor_type"`
	Reason    string `json:"reason"`
}

// Cancel aborts a non-terminal trip. The body is optional; an empty actor
// defaults to the rider.
func (h *TripHandler) Cancel(c *gin.Context) {
	var req cancelTripReq
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	id := types.ID(c.Param("id"))
	if err := h.trip.Cancel(c.Request.Context(), trip.CancelCommand{
		TripID:    id,
		ActorType: req.ActorType,
		Reason:    req.Reason,
	}); err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"trip_id": id, "status": trip.StatusCancelled})
}
