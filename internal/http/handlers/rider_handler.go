// README: Rider handlers for registration and position updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/get2yaheart/get2ya/internal/modules/rider"
	"github.com/get2yaheart/get2ya/internal/types"
)

type RiderHandler struct {
	rider *rider.Service
}

func NewRiderHandler(svc *rider.Service) *RiderHandler {
	return &RiderHandler{rider: svc}
}

type registerRiderReq struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PaymentMethod string  `json:"payment_method"`
	Rating        float64 `json:"rating"`
}

func (h *RiderHandler) Register(c *gin.Context) {
	var req registerRiderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rider.Register(c.Request.Context(), rider.RegisterCommand{
		ID:            types.ID(req.ID),
		Name:          req.Name,
		PaymentMethod: req.PaymentMethod,
		Rating:        req.Rating,
	})
	if err != nil {
		writeRiderError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{
		"rider_id":       r.ID,
		"name":           r.Name,
		"payment_method": r.PaymentMethod,
		"rating":         r.State().Rating,
	})
}

func (h *RiderHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	st, err := h.rider.UpdateLocation(c.Request.Context(), id, types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeRiderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"rider_id":   id,
		"position":   st.Position,
		"updated_at": st.UpdatedAt,
	})
}

func (h *RiderHandler) Get(c *gin.Context) {
	id := types.ID(c.Param("id"))
	r, err := h.rider.Get(c.Request.Context(), id)
	if err != nil {
		writeRiderError(c, err)
		return
	}
	st := r.State()
	writeJSON(c, http.StatusOK, gin.H{
		"rider_id":       r.ID,
		"name":           r.Name,
		"payment_method": r.PaymentMethod,
		"rating":         st.Rating,
		"position":       st.Position,
		"updated_at":     st.UpdatedAt,
	})
}
