// README: Driver handlers for registration, location pings, status, logout.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/types"
)

type DriverHandler struct {
	driver *driver.Service
}

func NewDriverHandler(svc *driver.Service) *DriverHandler {
	return &DriverHandler{driver: svc}
}

type registerDriverReq struct {
	ID      string  `json:"id"`
	Vehicle string  `json:"vehicle"`
	Rating  float64 `json:"rating"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.driver.Register(c.Request.Context(), driver.RegisterCommand{
		ID:      types.ID(req.ID),
		Vehicle: req.Vehicle,
		Rating:  req.Rating,
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	st := d.State()
	writeJSON(c, http.StatusCreated, gin.H{
		"driver_id": d.ID,
		"vehicle":   d.Vehicle,
		"tier":      d.Tier,
		"status":    st.Status,
		"rating":    st.Rating,
	})
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type pingResponse struct {
	DriverID   types.ID      `json:"driver_id"`
	Position   types.Point   `json:"position"`
	HeadingDeg float64       `json:"heading_deg"`
	SpeedKmh   float64       `json:"speed_kmh"`
	Status     driver.Status `json:"status"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// UpdateLocation applies a position ping and echoes the kinematics computed
// from it.
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	st, err := h.driver.Ping(c.Request.Context(), driver.PingCommand{
		ID:       id,
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, pingResponse{
		DriverID:   id,
		Position:   st.Position,
		HeadingDeg: st.HeadingDeg,
		SpeedKmh:   st.SpeedKmh,
		Status:     st.Status,
		UpdatedAt:  st.UpdatedAt,
	})
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.driver.SetStatus(c.Request.Context(), id, driver.Status(req.Status)); err != nil {
		writeDriverError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"driver_id": id, "status": req.Status})
}

func (h *DriverHandler) Logout(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.driver.Logout(c.Request.Context(), id); err != nil {
		writeDriverError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
