package repository

import "context"

// Stores groups the repositories that take part in one transaction.
type Stores struct {
	Requests    RideRequestRepository
	Rides       RideRepository
	Assignments AssignmentRepository
	Payments    PaymentRepository
	Vehicles    VehicleRepository
	Drivers     DriverRepository
}

// Transactor runs fn inside a single database transaction. The transaction
// commits if fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(s Stores) error) error
}
