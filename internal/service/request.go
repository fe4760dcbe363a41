package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

const recentRequestsLimit = 10

// RequestService handles riders' ride requests.
type RequestService struct {
	requestRepo repository.RideRequestRepository
	geocoder    geo.Geocoder
	router      geo.Router
	policy      FarePolicy
	notifier    *NotificationService
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewRequestService creates a new RequestService. geocoder and router are
// expected to end in a fallback so they answer even when upstreams fail.
func NewRequestService(
	requestRepo repository.RideRequestRepository,
	geocoder geo.Geocoder,
	router geo.Router,
	policy FarePolicy,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		geocoder:    geocoder,
		router:      router,
		policy:      policy,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// TripInput is what a rider types into the request form.
type TripInput struct {
	Pickup      string
	Destination string
	Seats       int
}

// TripQuote is a priced, located trip.
type TripQuote struct {
	Pickup      geo.Place
	Destination geo.Place
	Route       geo.Route
	Fare        Quote
}

// Approximate reports whether any coordinate or distance came from a fallback.
func (q *TripQuote) Approximate() bool {
	return q.Pickup.Approximate || q.Destination.Approximate || q.Route.Approximate
}

func (in TripInput) validate() error {
	if strings.TrimSpace(in.Pickup) == "" || strings.TrimSpace(in.Destination) == "" {
		return invalid("location", ErrMissingLocation)
	}
	if in.Seats < 1 {
		return invalid("seats", ErrInvalidSeats)
	}
	return nil
}

// Quote locates both places, routes between them and prices the trip.
// Input is validated before any network call.
func (s *RequestService) Quote(ctx context.Context, caller domain.Caller, in TripInput) (*TripQuote, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.quote(ctx, in)
}

func (s *RequestService) quote(ctx context.Context, in TripInput) (*TripQuote, error) {
	pickup, err := s.geocoder.Geocode(ctx, strings.TrimSpace(in.Pickup))
	if err != nil {
		return nil, err
	}
	destination, err := s.geocoder.Geocode(ctx, strings.TrimSpace(in.Destination))
	if err != nil {
		return nil, err
	}
	route, err := s.router.Route(ctx, pickup.Point, destination.Point)
	if err != nil {
		return nil, err
	}

	fare, err := s.policy.Estimate(route.DistanceKm, in.Seats)
	if err != nil {
		return nil, err
	}
	return &TripQuote{Pickup: pickup, Destination: destination, Route: route, Fare: fare}, nil
}

// Submit prices the trip and stores it as a pending request.
func (s *RequestService) Submit(ctx context.Context, caller domain.Caller, in TripInput) (*domain.RideRequest, *TripQuote, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, nil, err
	}
	if err := in.validate(); err != nil {
		return nil, nil, err
	}

	q, err := s.quote(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	req := &domain.RideRequest{
		ID:             uuid.New().String(),
		RiderID:        caller.ID,
		PickupLocation: strings.TrimSpace(in.Pickup),
		Destination:    strings.TrimSpace(in.Destination),
		PickupLat:      q.Pickup.Lat,
		PickupLng:      q.Pickup.Lng,
		DestinationLat: q.Destination.Lat,
		DestinationLng: q.Destination.Lng,
		DistanceKm:     q.Route.DistanceKm,
		SeatsRequired:  in.Seats,
		EstimatedFare:  q.Fare.ListFare,
		Status:         domain.RequestStatusPending,
		CreatedAt:      s.now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.log.WithError(err).WithField("rider_id", caller.ID).Error("failed to store ride request")
		return nil, nil, storeErr("create ride request", err)
	}

	observability.RequestsSubmitted.Inc()
	s.log.WithFields(logrus.Fields{
		"request_id":  req.ID,
		"rider_id":    req.RiderID,
		"seats":       req.SeatsRequired,
		"approximate": q.Approximate(),
	}).Info("ride request submitted")

	if s.notifier != nil {
		s.notifier.NotifyRequestSubmitted(ctx, req)
	}
	return req, q, nil
}

// ListMine returns the caller's most recent requests, newest first.
func (s *RequestService) ListMine(ctx context.Context, caller domain.Caller) ([]*domain.RideRequest, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.ListByRider(ctx, caller.ID, recentRequestsLimit)
	if err != nil {
		return nil, storeErr("list rider requests", err)
	}
	if requests == nil {
		requests = []*domain.RideRequest{}
	}
	return requests, nil
}

// Cancel withdraws a request that no driver has accepted yet.
func (s *RequestService) Cancel(ctx context.Context, caller domain.Caller, requestID string) (*domain.RideRequest, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, invalid("request_id", ErrMissingID)
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeErr("load ride request", err)
	}
	if req.RiderID != caller.ID {
		return nil, ErrForbidden
	}
	if !req.Status.CanTransition(domain.RequestStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	err = s.requestRepo.TransitionStatus(ctx, req.ID, domain.RequestStatusPending, domain.RequestStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, storeErr("cancel ride request", err)
	}
	req.Status = domain.RequestStatusCancelled

	if s.notifier != nil {
		s.notifier.NotifyRequestCancelled(ctx, req)
	}
	return req, nil
}
