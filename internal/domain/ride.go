package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
)

// Ride aggregates the requests a driver has accepted into one trip.
type Ride struct {
	ID          string
	DriverID    string
	VehicleID   string
	Status      RideStatus
	FinalFare   float64
	CreatedAt   time.Time
	CompletedAt time.Time
}

// RideAssignment links a ride request to the ride that carries it.
type RideAssignment struct {
	ID        string
	RideID    string
	RequestID string
	CreatedAt time.Time
}

// RideDetail is a ride together with the requests assigned to it.
type RideDetail struct {
	Ride     *Ride
	Requests []*RideRequest
}

// OccupiedSeats returns the seats taken by the assigned requests.
func (d *RideDetail) OccupiedSeats() int {
	total := 0
	for _, r := range d.Requests {
		total += r.SeatsRequired
	}
	return total
}
