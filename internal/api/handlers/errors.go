package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"silo-dispatch/internal/api/models"
	"silo-dispatch/internal/model"
	"silo-dispatch/internal/service"
	"silo-dispatch/internal/store"
)

// statusFor maps domain errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidHorizon):
		return http.StatusBadRequest, "INVALID_HORIZON"
	case errors.Is(err, model.ErrInvalidSettings):
		return http.StatusBadRequest, "INVALID_SETTINGS"
	case errors.Is(err, model.ErrInvalidEdit):
		return http.StatusBadRequest, "INVALID_EDIT"
	case errors.Is(err, model.ErrUnknownProduct):
		return http.StatusNotFound, "UNKNOWN_PRODUCT"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "SCHEDULE_NOT_FOUND"
	case errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound, "SIMULATION_NOT_FOUND"
	case errors.Is(err, model.ErrEditOrdering):
		return http.StatusConflict, "EDIT_ORDERING"
	case errors.Is(err, service.ErrNoStore):
		return http.StatusServiceUnavailable, "STORE_DISABLED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// parseHorizon resolves the request dates to midnight in the requested zone.
func parseHorizon(h models.Horizon) (time.Time, time.Time, error) {
	loc := time.UTC
	if h.Timezone != "" {
		l, err := time.LoadLocation(h.Timezone)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("unknown timezone %q", h.Timezone)
		}
		loc = l
	}
	start, err := time.ParseInLocation(time.DateOnly, h.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be in YYYY-MM-DD format")
	}
	end, err := time.ParseInLocation(time.DateOnly, h.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must be in YYYY-MM-DD format")
	}
	return start, end, nil
}
