package domain

// Placeholders used when a request has no pickup or destination text.
const (
	UnknownPickup      = "Unknown Pickup"
	UnknownDestination = "Unknown Destination"
)

// RouteGroup is an in-memory aggregation of pending requests that share a
// normalized pickup/destination pair. It is rebuilt on every read.
type RouteGroup struct {
	Key           string
	Pickup        string
	Destination   string
	RequestIDs    []string
	Requests      []*RideRequest
	TotalSeats    int
	TotalEarnings float64
}
