package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

// RideService handles a driver's rides after acceptance.
type RideService struct {
	tx          repository.Transactor
	rideRepo    repository.RideRepository
	requestRepo repository.RideRequestRepository
	policy      FarePolicy
	notifier    *NotificationService
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewRideService creates a new RideService.
func NewRideService(
	tx repository.Transactor,
	rideRepo repository.RideRepository,
	requestRepo repository.RideRequestRepository,
	policy FarePolicy,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *RideService {
	return &RideService{
		tx:          tx,
		rideRepo:    rideRepo,
		requestRepo: requestRepo,
		policy:      policy,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// ActiveRides returns the driver's ongoing ride with its passengers. The
// result is empty when the driver has no ongoing ride.
func (s *RideService) ActiveRides(ctx context.Context, caller domain.Caller) ([]*domain.RideDetail, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetOngoingByDriverID(ctx, caller.ID)
	if err != nil {
		return nil, storeErr("load ongoing ride", err)
	}
	if ride == nil {
		return []*domain.RideDetail{}, nil
	}

	requests, err := s.requestRepo.ListByRide(ctx, ride.ID)
	if err != nil {
		return nil, storeErr("load ride requests", err)
	}
	return []*domain.RideDetail{{Ride: ride, Requests: requests}}, nil
}

// CompleteRide finishes an ongoing ride owned by the caller and moves every
// request on it from accepted to completed.
func (s *RideService) CompleteRide(ctx context.Context, caller domain.Caller, rideID string) (*domain.RideDetail, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, err
	}
	if rideID == "" {
		return nil, invalid("ride_id", ErrMissingID)
	}

	var detail *domain.RideDetail
	err := s.tx.WithinTx(ctx, func(st repository.Stores) error {
		ride, err := st.Rides.GetByID(ctx, rideID)
		if err != nil {
			return storeErr("load ride", err)
		}
		if ride.DriverID != caller.ID {
			return ErrForbidden
		}
		if ride.Status != domain.RideStatusOngoing {
			return ErrRideNotOngoing
		}

		completedAt := s.now()
		if err := st.Rides.Complete(ctx, ride.ID, completedAt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRideNotOngoing
			}
			return storeErr("complete ride", err)
		}
		ride.Status = domain.RideStatusCompleted
		ride.CompletedAt = completedAt

		requests, err := st.Requests.ListByRide(ctx, ride.ID)
		if err != nil {
			return storeErr("load ride requests", err)
		}
		for _, req := range requests {
			if err := st.Requests.TransitionStatus(ctx, req.ID, domain.RequestStatusAccepted, domain.RequestStatusCompleted); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return ErrInvalidTransition
				}
				return storeErr("complete request", err)
			}
			req.Status = domain.RequestStatusCompleted
		}

		detail = &domain.RideDetail{Ride: ride, Requests: requests}
		return nil
	})
	if err != nil {
		return nil, storeErr("complete ride", err)
	}

	observability.RidesCompleted.Inc()
	s.log.WithFields(logrus.Fields{
		"driver_id":  caller.ID,
		"ride_id":    detail.Ride.ID,
		"final_fare": detail.Ride.FinalFare,
	}).Info("ride completed")

	if s.notifier != nil {
		s.notifier.NotifyRideCompleted(ctx, detail.Ride, detail.Requests, s.policy)
	}
	return detail, nil
}
