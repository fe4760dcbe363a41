package geo

import (
	"context"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/sirupsen/logrus"
)

// routeKeyPrecision of 7 characters is roughly a 150m cell.
const routeKeyPrecision = 7

// PlaceStore remembers resolved addresses.
type PlaceStore interface {
	LookupPlace(ctx context.Context, name string) (*Point, error)
	SavePlace(ctx context.Context, name string, p Point) error
}

// RouteStore remembers resolved routes.
type RouteStore interface {
	GetRoute(ctx context.Context, key string) (*Route, error)
	SetRoute(ctx context.Context, key string, r Route, ttl time.Duration) error
}

// CachedGeocoder consults a PlaceStore before the wrapped geocoder.
// Approximate answers are never stored.
type CachedGeocoder struct {
	next   Geocoder
	places PlaceStore
	log    logrus.FieldLogger
}

// NewCachedGeocoder creates a CachedGeocoder.
func NewCachedGeocoder(next Geocoder, places PlaceStore, log logrus.FieldLogger) *CachedGeocoder {
	return &CachedGeocoder{next: next, places: places, log: log}
}

// Geocode implements Geocoder.
func (g *CachedGeocoder) Geocode(ctx context.Context, address string) (Place, error) {
	name := NormalizeAddress(address)
	if p, err := g.places.LookupPlace(ctx, name); err != nil {
		g.log.WithError(err).Debug("place cache lookup failed")
	} else if p != nil {
		return Place{Point: *p}, nil
	}

	place, err := g.next.Geocode(ctx, address)
	if err != nil {
		return place, err
	}
	if !place.Approximate {
		if err := g.places.SavePlace(ctx, name, place.Point); err != nil {
			g.log.WithError(err).Debug("place cache store failed")
		}
	}
	return place, nil
}

// CachedRouter consults a RouteStore before the wrapped router.
type CachedRouter struct {
	next   Router
	routes RouteStore
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewCachedRouter creates a CachedRouter.
func NewCachedRouter(next Router, routes RouteStore, ttl time.Duration, log logrus.FieldLogger) *CachedRouter {
	return &CachedRouter{next: next, routes: routes, ttl: ttl, log: log}
}

// Route implements Router.
func (r *CachedRouter) Route(ctx context.Context, from, to Point) (Route, error) {
	key := RouteKey(from, to)
	if cached, err := r.routes.GetRoute(ctx, key); err != nil {
		r.log.WithError(err).Debug("route cache lookup failed")
	} else if cached != nil {
		return *cached, nil
	}

	route, err := r.next.Route(ctx, from, to)
	if err != nil {
		return route, err
	}
	if !route.Approximate {
		if err := r.routes.SetRoute(ctx, key, route, r.ttl); err != nil {
			r.log.WithError(err).Debug("route cache store failed")
		}
	}
	return route, nil
}

// RouteKey identifies a route by the geohash cells of its endpoints.
func RouteKey(from, to Point) string {
	return geohash.EncodeWithPrecision(from.Lat, from.Lng, routeKeyPrecision) + ":" +
		geohash.EncodeWithPrecision(to.Lat, to.Lng, routeKeyPrecision)
}

// NormalizeAddress lower-cases and collapses whitespace.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
