package repository

import (
	"context"

	"carpool/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	Create(ctx context.Context, rider *domain.Rider) error
	GetByID(ctx context.Context, id string) (*domain.Rider, error)
}

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
}

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a vehicle for a driver.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByDriverID returns the driver's first registered vehicle.
	GetByDriverID(ctx context.Context, driverID string) (*domain.Vehicle, error)
}
