package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	groupingService   *service.GroupingService
	assignmentService *service.AssignmentService
	rideService       *service.RideService
	earningsService   *service.EarningsService
	now               func() time.Time
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(
	groupingService *service.GroupingService,
	assignmentService *service.AssignmentService,
	rideService *service.RideService,
	earningsService *service.EarningsService,
) *DriverHandler {
	return &DriverHandler{
		groupingService:   groupingService,
		assignmentService: assignmentService,
		rideService:       rideService,
		earningsService:   earningsService,
		now:               time.Now,
	}
}

// GroupResponse is the HTTP response for a route group.
type GroupResponse struct {
	Key           string                `json:"key"`
	Pickup        string                `json:"pickup"`
	Destination   string                `json:"destination"`
	RequestIDs    []string              `json:"request_ids"`
	TotalSeats    int                   `json:"total_seats"`
	TotalEarnings float64               `json:"total_earnings"`
	Requests      []RideRequestResponse `json:"requests"`
}

// AcceptGroupRequest is the HTTP request body for accepting a group.
type AcceptGroupRequest struct {
	RequestIDs []string `json:"request_ids"`
}

// AcceptResponse is the HTTP response for an acceptance.
type AcceptResponse struct {
	RideID        string   `json:"ride_id"`
	NewRide       bool     `json:"new_ride"`
	RequestIDs    []string `json:"request_ids"`
	FinalFare     float64  `json:"final_fare"`
	OccupiedSeats int      `json:"occupied_seats"`
	Capacity      int      `json:"capacity"`
}

// RideResponse is the HTTP response for a ride with its passengers.
type RideResponse struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	FinalFare     float64               `json:"final_fare"`
	OccupiedSeats int                   `json:"occupied_seats"`
	CreatedAt     string                `json:"created_at"`
	CompletedAt   string                `json:"completed_at,omitempty"`
	Requests      []RideRequestResponse `json:"requests"`
}

// EarningsResponse is the HTTP response for the earnings ledger.
type EarningsResponse struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	MonthlyEarnings  float64 `json:"monthly_earnings"`
	TotalEarnings    float64 `json:"total_earnings"`
	MonthlyRideCount int     `json:"monthly_ride_count"`
	TotalRideCount   int     `json:"total_ride_count"`
}

func toRideResponse(d *domain.RideDetail) RideResponse {
	resp := RideResponse{
		ID:            d.Ride.ID,
		Status:        string(d.Ride.Status),
		FinalFare:     d.Ride.FinalFare,
		OccupiedSeats: d.OccupiedSeats(),
		CreatedAt:     d.Ride.CreatedAt.Format(timeLayout),
		Requests:      make([]RideRequestResponse, 0, len(d.Requests)),
	}
	if !d.Ride.CompletedAt.IsZero() {
		resp.CompletedAt = d.Ride.CompletedAt.Format(timeLayout)
	}
	for _, r := range d.Requests {
		resp.Requests = append(resp.Requests, toRideRequestResponse(r))
	}
	return resp
}

// PendingGroups handles GET /v1/driver/groups
func (h *DriverHandler) PendingGroups(c *gin.Context) {
	groups, err := h.groupingService.PendingGroups(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		gr := GroupResponse{
			Key:           g.Key,
			Pickup:        g.Pickup,
			Destination:   g.Destination,
			RequestIDs:    g.RequestIDs,
			TotalSeats:    g.TotalSeats,
			TotalEarnings: g.TotalEarnings,
			Requests:      make([]RideRequestResponse, 0, len(g.Requests)),
		}
		for _, r := range g.Requests {
			gr.Requests = append(gr.Requests, toRideRequestResponse(r))
		}
		response = append(response, gr)
	}
	respondJSON(c, http.StatusOK, response)
}

// AcceptGroup handles POST /v1/driver/groups/accept
func (h *DriverHandler) AcceptGroup(c *gin.Context) {
	var req AcceptGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	result, err := h.assignmentService.AcceptGroup(c.Request.Context(), middleware.CallerFrom(c), req.RequestIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAcceptResponse(result))
}

// AcceptRequest handles POST /v1/driver/requests/:id/accept
func (h *DriverHandler) AcceptRequest(c *gin.Context) {
	result, err := h.assignmentService.AcceptRequest(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAcceptResponse(result))
}

func toAcceptResponse(r *service.AcceptResult) AcceptResponse {
	return AcceptResponse{
		RideID:        r.Ride.ID,
		NewRide:       r.NewRide,
		RequestIDs:    r.Group.RequestIDs,
		FinalFare:     r.Ride.FinalFare,
		OccupiedSeats: r.OccupiedSeats,
		Capacity:      r.Capacity,
	}
}

// ActiveRides handles GET /v1/driver/rides
func (h *DriverHandler) ActiveRides(c *gin.Context) {
	rides, err := h.rideService.ActiveRides(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, d := range rides {
		response = append(response, toRideResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}

// CompleteRide handles POST /v1/driver/rides/:id/complete
func (h *DriverHandler) CompleteRide(c *gin.Context) {
	detail, err := h.rideService.CompleteRide(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRideResponse(detail))
}

// Earnings handles GET /v1/driver/earnings?year=&month=
// Both parameters default to the current UTC month.
func (h *DriverHandler) Earnings(c *gin.Context) {
	now := h.now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "year must be a number", Kind: "validation", Field: "year"})
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "month must be a number", Kind: "validation", Field: "month"})
			return
		}
		month = n
	}

	e, err := h.earningsService.DriverEarnings(c.Request.Context(), middleware.CallerFrom(c), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EarningsResponse{
		Year:             e.Year,
		Month:            int(e.Month),
		MonthlyEarnings:  e.Monthly,
		TotalEarnings:    e.Total,
		MonthlyRideCount: e.MonthlyRideCount,
		TotalRideCount:   e.RideCount,
	})
}
