package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carpool/internal/domain"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// RequestHandler handles riders' ride requests.
type RequestHandler struct {
	requestService *service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// TripRequest is the HTTP request body for quoting or submitting a trip.
type TripRequest struct {
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	Seats       int    `json:"seats"`
}

func (r TripRequest) input() service.TripInput {
	return service.TripInput{Pickup: r.Pickup, Destination: r.Destination, Seats: r.Seats}
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	Pickup          PointResponse `json:"pickup"`
	Destination     PointResponse `json:"destination"`
	DistanceKm      float64       `json:"distance_km"`
	DurationMinutes float64       `json:"duration_minutes"`
	Seats           int           `json:"seats"`
	PrivateCabFare  float64       `json:"private_cab_fare"`
	PerSeatFare     float64       `json:"per_seat_fare"`
	TotalFare       float64       `json:"total_fare"`
	Approximate     bool          `json:"approximate"`
}

// PointResponse is a coordinate in a response.
type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideRequestResponse is the HTTP response for a ride request.
type RideRequestResponse struct {
	ID            string         `json:"id"`
	Pickup        string         `json:"pickup"`
	Destination   string         `json:"destination"`
	DistanceKm    float64        `json:"distance_km"`
	SeatsRequired int            `json:"seats_required"`
	EstimatedFare float64        `json:"estimated_fare"`
	Status        string         `json:"status"`
	CreatedAt     string         `json:"created_at"`
	Quote         *QuoteResponse `json:"quote,omitempty"`
}

func toQuoteResponse(q *service.TripQuote) *QuoteResponse {
	return &QuoteResponse{
		Pickup:          PointResponse{Lat: q.Pickup.Lat, Lng: q.Pickup.Lng},
		Destination:     PointResponse{Lat: q.Destination.Lat, Lng: q.Destination.Lng},
		DistanceKm:      q.Route.DistanceKm,
		DurationMinutes: q.Route.DurationSeconds / 60,
		Seats:           q.Fare.Seats,
		PrivateCabFare:  q.Fare.PrivateCabFare,
		PerSeatFare:     q.Fare.PerSeatFare,
		TotalFare:       q.Fare.TotalFare,
		Approximate:     q.Approximate(),
	}
}

func toRideRequestResponse(r *domain.RideRequest) RideRequestResponse {
	return RideRequestResponse{
		ID:            r.ID,
		Pickup:        r.PickupLocation,
		Destination:   r.Destination,
		DistanceKm:    r.DistanceKm,
		SeatsRequired: r.SeatsRequired,
		EstimatedFare: r.EstimatedFare,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.Format(timeLayout),
	}
}

// Quote handles POST /v1/ride-requests/quote
func (h *RequestHandler) Quote(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	q, err := h.requestService.Quote(c.Request.Context(), middleware.CallerFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toQuoteResponse(q))
}

// Submit handles POST /v1/ride-requests
func (h *RequestHandler) Submit(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	rr, q, err := h.requestService.Submit(c.Request.Context(), middleware.CallerFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toRideRequestResponse(rr)
	resp.Quote = toQuoteResponse(q)
	respondJSON(c, http.StatusCreated, resp)
}

// ListMine handles GET /v1/ride-requests
func (h *RequestHandler) ListMine(c *gin.Context) {
	requests, err := h.requestService.ListMine(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideRequestResponse, 0, len(requests))
	for _, r := range requests {
		response = append(response, toRideRequestResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// Cancel handles POST /v1/ride-requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	rr, err := h.requestService.Cancel(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideRequestResponse(rr))
}
