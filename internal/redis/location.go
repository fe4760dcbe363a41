package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/geo"
)

const placesGeoKey = "places:geo"

// PlaceStore keeps geocoded addresses in a Redis GEO index, keyed by the
// normalized address text.
type PlaceStore struct {
	client *redis.Client
}

// NewPlaceStore creates a new PlaceStore.
func NewPlaceStore(client *redis.Client) *PlaceStore {
	return &PlaceStore{client: client}
}

// SavePlace stores a resolved address using GEOADD.
func (s *PlaceStore) SavePlace(ctx context.Context, name string, p geo.Point) error {
	return s.client.GeoAdd(ctx, placesGeoKey, &redis.GeoLocation{
		Name:      name,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// LookupPlace returns the stored coordinates for name, or nil on a miss.
func (s *PlaceStore) LookupPlace(ctx context.Context, name string) (*geo.Point, error) {
	positions, err := s.client.GeoPos(ctx, placesGeoKey, name).Result()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}
	return &geo.Point{Lat: positions[0].Latitude, Lng: positions[0].Longitude}, nil
}

// NearbyPlaces returns stored address names within radiusKm of p, nearest first.
func (s *PlaceStore) NearbyPlaces(ctx context.Context, p geo.Point, radiusKm float64) ([]string, error) {
	results, err := s.client.GeoRadius(ctx, placesGeoKey, p.Lng, p.Lat, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names, nil
}
