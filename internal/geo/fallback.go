package geo

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/sirupsen/logrus"

	"carpool/internal/observability"
)

const kmPerDegreeLat = 111.32

// FallbackGeocoder asks primary first and, when it fails, answers with a
// random point within radiusKm of center.
type FallbackGeocoder struct {
	primary  Geocoder
	center   Point
	radiusKm float64
	log      logrus.FieldLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewFallbackGeocoder creates a FallbackGeocoder. primary may be nil, in
// which case every answer is a fallback.
func NewFallbackGeocoder(primary Geocoder, center Point, radiusKm float64, log logrus.FieldLogger) *FallbackGeocoder {
	return &FallbackGeocoder{
		primary:  primary,
		center:   center,
		radiusKm: radiusKm,
		log:      log,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// WithSeed makes the fallback points deterministic.
func (g *FallbackGeocoder) WithSeed(seed uint64) *FallbackGeocoder {
	g.rnd = rand.New(rand.NewPCG(seed, seed))
	return g
}

// Geocode never fails.
func (g *FallbackGeocoder) Geocode(ctx context.Context, address string) (Place, error) {
	if g.primary != nil {
		place, err := g.primary.Geocode(ctx, address)
		if err == nil {
			return place, nil
		}
		g.log.WithError(err).WithField("address", address).Warn("geocoding failed, using approximate location")
	}
	observability.GeoFallbacks.WithLabelValues("geocode").Inc()
	return Place{Point: g.nearby(), Approximate: true}, nil
}

func (g *FallbackGeocoder) nearby() Point {
	g.mu.Lock()
	bearing := g.rnd.Float64() * 2 * math.Pi
	// sqrt keeps the points uniform over the disc.
	dist := g.radiusKm * math.Sqrt(g.rnd.Float64())
	g.mu.Unlock()

	dLat := dist * math.Cos(bearing) / kmPerDegreeLat
	dLng := dist * math.Sin(bearing) / (kmPerDegreeLat * math.Cos(g.center.Lat*math.Pi/180))
	return Point{Lat: g.center.Lat + dLat, Lng: g.center.Lng + dLng}
}

// FallbackRouter asks primary first and, when it fails, answers with the
// great-circle distance.
type FallbackRouter struct {
	primary Router
	log     logrus.FieldLogger
}

// NewFallbackRouter creates a FallbackRouter. primary may be nil.
func NewFallbackRouter(primary Router, log logrus.FieldLogger) *FallbackRouter {
	return &FallbackRouter{primary: primary, log: log}
}

// Route never fails.
func (r *FallbackRouter) Route(ctx context.Context, from, to Point) (Route, error) {
	if r.primary != nil {
		route, err := r.primary.Route(ctx, from, to)
		if err == nil {
			return route, nil
		}
		r.log.WithError(err).Warn("routing failed, using straight-line distance")
	}
	observability.GeoFallbacks.WithLabelValues("route").Inc()
	return Route{DistanceKm: HaversineKm(from, to), Approximate: true}, nil
}
