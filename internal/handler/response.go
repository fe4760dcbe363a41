package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/repository"
	"carpool/internal/service"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code, kind := classify(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	var de *service.DataStoreError
	if errors.As(err, &de) {
		// Store details stay in the logs.
		resp.Error = "the operation could not be completed, please retry"
	}

	_ = c.Error(err)
	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// classify maps service/repository errors to an HTTP status code and an
// error kind clients can switch on.
func classify(err error) (int, string) {
	var ve *service.ValidationError
	var de *service.DataStoreError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation"

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, service.ErrCapacityExceeded):
		return http.StatusConflict, "capacity_exceeded"

	// Conflict errors
	case errors.Is(err, service.ErrRequestNotPending),
		errors.Is(err, service.ErrRequestAlreadyClaimed),
		errors.Is(err, service.ErrAcceptInProgress),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrRideNotOngoing),
		errors.Is(err, service.ErrRequestNotCompleted),
		errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusConflict, "conflict"

	case errors.Is(err, service.ErrNoVehicle):
		return http.StatusUnprocessableEntity, "no_vehicle"

	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed"

	case errors.As(err, &de):
		return http.StatusServiceUnavailable, "data_store"

	default:
		return http.StatusInternalServerError, "internal"
	}
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Kind: "validation"})
}
