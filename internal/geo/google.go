package geo

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleMaps talks to the Google Geocoding and Directions APIs.
type GoogleMaps struct {
	client *maps.Client
	region string
}

// NewGoogleMaps creates a Google Maps adapter with the given API key.
// region biases geocoding results (ccTLD, e.g. "in").
func NewGoogleMaps(apiKey, region string) (*GoogleMaps, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMaps{client: client, region: region}, nil
}

// Geocode resolves an address to the first matching place.
func (g *GoogleMaps) Geocode(ctx context.Context, address string) (Place, error) {
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		return Place{}, &ExternalServiceError{Service: "google geocode", Err: err}
	}
	if len(resp) == 0 {
		return Place{}, &ExternalServiceError{Service: "google geocode", Err: ErrNoResult}
	}
	loc := resp[0].Geometry.Location
	return Place{Point: Point{Lat: loc.Lat, Lng: loc.Lng}}, nil
}

// Route returns the first leg of the driving directions between two points.
func (g *GoogleMaps) Route(ctx context.Context, from, to Point) (Route, error) {
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return Route{}, &ExternalServiceError{Service: "google directions", Err: err}
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, &ExternalServiceError{Service: "google directions", Err: ErrNoResult}
	}
	leg := routes[0].Legs[0]
	return Route{
		DistanceKm:      float64(leg.Distance.Meters) / 1000,
		DurationSeconds: leg.Duration.Seconds(),
	}, nil
}
