package repository

import (
	"context"
	"time"

	"carpool/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetOngoingByDriverID returns the driver's ongoing ride, or nil if none.
	GetOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error)

	// LockOngoingByDriverID is GetOngoingByDriverID with a row lock held
	// until the surrounding transaction ends.
	LockOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error)

	// AddFare increments the final fare of an ongoing ride.
	AddFare(ctx context.Context, id string, amount float64) error

	// Complete moves an ongoing ride to completed. Returns ErrConflict if the
	// ride is not ongoing.
	Complete(ctx context.Context, id string, at time.Time) error

	// SumCompletedFares sums final_fare over the driver's completed rides
	// created in [from, to). Zero times leave that bound open.
	SumCompletedFares(ctx context.Context, driverID string, from, to time.Time) (float64, int, error)
}

// AssignmentRepository defines the persistence operations for ride assignments.
type AssignmentRepository interface {
	// Create links a request to a ride. Returns ErrDuplicate if the request
	// is already assigned.
	Create(ctx context.Context, a *domain.RideAssignment) error

	// GetByRequestID returns the assignment carrying a request.
	GetByRequestID(ctx context.Context, requestID string) (*domain.RideAssignment, error)

	// ListByRideID returns the assignments of a ride.
	ListByRideID(ctx context.Context, rideID string) ([]*domain.RideAssignment, error)
}
