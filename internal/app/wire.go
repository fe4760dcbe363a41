package app

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"carpool/internal/config"
	"carpool/internal/events"
	"carpool/internal/geo"
	"carpool/internal/handler"
	"carpool/internal/payments"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

// Services holds every application service.
type Services struct {
	Requests    *service.RequestService
	Grouping    *service.GroupingService
	Assignments *service.AssignmentService
	Rides       *service.RideService
	Payments    *service.PaymentService
	Earnings    *service.EarningsService
	Users       *service.UserService
	Publisher   events.Publisher
}

// Close flushes the event publisher.
func (s *Services) Close() error {
	return s.Publisher.Close()
}

// FarePolicy converts the fare configuration.
func FarePolicy(cfg config.FareConfig) service.FarePolicy {
	return service.FarePolicy{
		BaseFare:           cfg.BaseFare,
		PerKmRate:          cfg.PerKmRate,
		RiderShare:         cfg.RiderShare,
		DefaultRequestFare: cfg.DefaultRequestFare,
	}
}

// NewGeo builds the geocoder and router chains:
// Redis cache, then Google Maps or OSRM, then the local fallback.
// redisClient may be nil, which disables caching.
func NewGeo(cfg config.GeoConfig, redisClient *redis.Client, log logrus.FieldLogger) (geo.Geocoder, geo.Router, error) {
	var google *geo.GoogleMaps
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geo.NewGoogleMaps(cfg.GoogleMapsAPIKey, cfg.Region)
		if err != nil {
			return nil, nil, fmt.Errorf("google maps client: %w", err)
		}
		google = g
	}

	var upstreamGeocoder geo.Geocoder
	if google != nil {
		upstreamGeocoder = google
	}

	var upstreamRouter geo.Router
	switch cfg.RouterProvider {
	case "google":
		if google == nil {
			return nil, nil, errors.New("google router requires a Google Maps API key")
		}
		upstreamRouter = google
	default:
		upstreamRouter = geo.NewOSRMRouter(cfg.OSRMEndpoint, cfg.HTTPTimeout)
	}

	if redisClient != nil {
		if upstreamGeocoder != nil {
			upstreamGeocoder = geo.NewCachedGeocoder(upstreamGeocoder, internalRedis.NewPlaceStore(redisClient), log)
		}
		upstreamRouter = geo.NewCachedRouter(upstreamRouter, internalRedis.NewRouteCache(redisClient), cfg.RouteCacheTTL, log)
	}

	center := geo.Point{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng}
	geocoder := geo.NewFallbackGeocoder(upstreamGeocoder, center, cfg.FallbackRadiusKm, log)
	router := geo.NewFallbackRouter(upstreamRouter, log)
	return geocoder, router, nil
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers
// are configured.
func NewPublisher(cfg config.KafkaConfig) events.Publisher {
	if len(cfg.Brokers) == 0 {
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// NewPSP returns the Stripe processor, or a record-only one when no API key
// is configured.
func NewPSP(cfg config.StripeConfig) service.PSP {
	if cfg.APIKey == "" {
		return service.RecordOnlyPSP{}
	}
	return payments.NewStripePSP(cfg.APIKey, cfg.Currency)
}

// NewServices wires repositories, stores and adapters into services.
// redisClient may be nil.
func NewServices(db *sql.DB, redisClient *redis.Client, cfg *config.Config, log logrus.FieldLogger) (*Services, error) {
	policy := FarePolicy(cfg.Fare)

	geocoder, router, err := NewGeo(cfg.Geo, redisClient, log)
	if err != nil {
		return nil, err
	}

	var lockStore internalRedis.LockStoreInterface
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
	}

	tx := postgres.NewTransactor(db)
	requestRepo := postgres.NewRideRequestRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	riderRepo := postgres.NewRiderRepository(db)

	publisher := NewPublisher(cfg.Kafka)
	notifier := service.NewNotificationService(publisher, log)

	return &Services{
		Requests:    service.NewRequestService(requestRepo, geocoder, router, policy, notifier, log),
		Grouping:    service.NewGroupingService(requestRepo, policy, log),
		Assignments: service.NewAssignmentService(tx, lockStore, policy, notifier, log),
		Rides:       service.NewRideService(tx, rideRepo, requestRepo, policy, notifier, log),
		Payments:    service.NewPaymentService(tx, paymentRepo, requestRepo, assignmentRepo, NewPSP(cfg.Stripe), policy, notifier, log),
		Earnings:    service.NewEarningsService(rideRepo),
		Users:       service.NewUserService(tx, riderRepo),
		Publisher:   publisher,
	}, nil
}

// Handlers fills the handler fields of RouterDeps.
func (s *Services) Handlers(deps RouterDeps) RouterDeps {
	deps.RequestHandler = handler.NewRequestHandler(s.Requests)
	deps.DriverHandler = handler.NewDriverHandler(s.Grouping, s.Assignments, s.Rides, s.Earnings)
	deps.UserHandler = handler.NewUserHandler(s.Users)
	deps.PaymentHandler = handler.NewPaymentHandler(s.Payments)
	return deps
}
