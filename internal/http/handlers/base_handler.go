// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/get2yaheart/get2ya/internal/modules/dispatch"
	"github.com/get2yaheart/get2ya/internal/modules/driver"
	"github.com/get2yaheart/get2ya/internal/modules/rider"
	"github.com/get2yaheart/get2ya/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeDriverError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, driver.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, driver.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, driver.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, dispatch.ErrInvalidPosition):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeRiderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rider.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, rider.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, rider.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrInvalidState), errors.Is(err, trip.ErrActiveTrip), errors.Is(err, trip.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrInvalidPosition),
		errors.Is(err, dispatch.ErrInvalidRadius),
		errors.Is(err, dispatch.ErrInvalidLimit):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// floatQuery parses a float query parameter, reporting whether it was present
// and well formed.
func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
