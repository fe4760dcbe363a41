package domain

import "time"

// Vehicle belongs to a driver and bounds the seats assignable to a ride.
type Vehicle struct {
	ID              string
	DriverID        string
	Model           string
	PlateNumber     string
	SeatingCapacity int
	CreatedAt       time.Time
}
