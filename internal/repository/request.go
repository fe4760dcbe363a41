package repository

import (
	"context"

	"carpool/internal/domain"
)

// RideRequestRepository defines the persistence operations for ride requests.
type RideRequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// GetByIDs retrieves the requests with the given IDs. Missing IDs are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.RideRequest, error)

	// ListPending returns every pending request, oldest first.
	ListPending(ctx context.Context) ([]*domain.RideRequest, error)

	// ListByRider returns the rider's most recent requests, newest first.
	ListByRider(ctx context.Context, riderID string, limit int) ([]*domain.RideRequest, error)

	// ListByRide returns the requests assigned to a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.RideRequest, error)

	// TransitionStatus moves a request from one status to another only if it
	// is still in the from status. Returns ErrConflict otherwise.
	TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error
}
