package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/middleware"
	"carpool/internal/service"
)

// UserHandler handles rider and driver registration.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRiderRequest is the HTTP request body for rider registration.
type RegisterRiderRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RiderResponse is the HTTP response for rider data.
type RiderResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// RegisterRider handles POST /v1/riders/register
func (h *UserHandler) RegisterRider(c *gin.Context) {
	var req RegisterRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	rider, err := h.userService.RegisterRider(c.Request.Context(), middleware.CallerFrom(c), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RiderResponse{ID: rider.ID, Name: rider.Name, Phone: rider.Phone})
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	VehicleModel    string `json:"vehicle_model"`
	PlateNumber     string `json:"plate_number"`
	SeatingCapacity int    `json:"seating_capacity"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone,omitempty"`
	Vehicle VehicleResponse `json:"vehicle"`
}

// VehicleResponse is the HTTP response for vehicle data.
type VehicleResponse struct {
	ID              string `json:"id"`
	Model           string `json:"model"`
	PlateNumber     string `json:"plate_number"`
	SeatingCapacity int    `json:"seating_capacity"`
}

// RegisterDriver handles POST /v1/drivers/register
func (h *UserHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	driver, vehicle, err := h.userService.RegisterDriver(c.Request.Context(), middleware.CallerFrom(c), service.DriverRegistration{
		Name:            req.Name,
		Phone:           req.Phone,
		VehicleModel:    req.VehicleModel,
		PlateNumber:     req.PlateNumber,
		SeatingCapacity: req.SeatingCapacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, DriverResponse{
		ID:    driver.ID,
		Name:  driver.Name,
		Phone: driver.Phone,
		Vehicle: VehicleResponse{
			ID:              vehicle.ID,
			Model:           vehicle.Model,
			PlateNumber:     vehicle.PlateNumber,
			SeatingCapacity: vehicle.SeatingCapacity,
		},
	})
}
