// Package geo resolves place names to coordinates and coordinates to
// driving distances. Every adapter chain ends in a local fallback so callers
// always receive an answer.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is the result of geocoding a free-text address.
type Place struct {
	Point
	// Approximate is set when the coordinates came from a fallback.
	Approximate bool
}

// Route is the driving route between two points.
type Route struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds float64 `json:"duration_seconds"`
	// Approximate is set when the distance is a great-circle estimate.
	Approximate bool `json:"approximate"`
}

// Geocoder resolves an address to a place.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Place, error)
}

// Router resolves the driving route between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (Route, error)
}

// ErrNoResult is returned when an upstream service answered without a match.
var ErrNoResult = errors.New("no result")

// ExternalServiceError wraps a failure of a third-party geo service.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
