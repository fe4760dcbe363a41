package domain

import "time"

// RequestStatus represents the lifecycle state of a ride request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusPaid      RequestStatus = "paid"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// allowedRequestTransitions lists the only forward moves a request can make.
var allowedRequestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:   {RequestStatusAccepted, RequestStatusCancelled},
	RequestStatusAccepted:  {RequestStatusCompleted},
	RequestStatusCompleted: {RequestStatusPaid},
}

// CanTransition reports whether a request may move from one status to another.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range allowedRequestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s RequestStatus) IsTerminal() bool {
	return len(allowedRequestTransitions[s]) == 0
}

// RideRequest is a rider's request for seats between two places.
type RideRequest struct {
	ID             string
	RiderID        string
	PickupLocation string
	Destination    string
	PickupLat      float64
	PickupLng      float64
	DestinationLat float64
	DestinationLng float64
	DistanceKm     float64
	SeatsRequired  int
	EstimatedFare  float64
	Status         RequestStatus
	CreatedAt      time.Time
}
