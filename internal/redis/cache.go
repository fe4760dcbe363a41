package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"carpool/internal/geo"
)

const routeCachePrefix = "cache:route:"

// RouteCache stores driving routes as JSON with a TTL.
type RouteCache struct {
	client *redis.Client
}

// NewRouteCache creates a new RouteCache.
func NewRouteCache(client *redis.Client) *RouteCache {
	return &RouteCache{client: client}
}

// GetRoute retrieves a route. A miss returns nil, nil.
func (s *RouteCache) GetRoute(ctx context.Context, key string) (*geo.Route, error) {
	data, err := s.client.Get(ctx, routeCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var route geo.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, err
	}
	return &route, nil
}

// SetRoute stores a route.
func (s *RouteCache) SetRoute(ctx context.Context, key string, route geo.Route, ttl time.Duration) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, routeCachePrefix+key, data, ttl).Err()
}
