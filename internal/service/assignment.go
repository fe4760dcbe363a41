package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/observability"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const driverLockTTL = 15 * time.Second

// AssignmentService turns pending requests into seats on a driver's ride.
type AssignmentService struct {
	tx        repository.Transactor
	lockStore redis.LockStoreInterface
	policy    FarePolicy
	notifier  *NotificationService
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewAssignmentService creates a new AssignmentService. lockStore may be nil.
func NewAssignmentService(
	tx repository.Transactor,
	lockStore redis.LockStoreInterface,
	policy FarePolicy,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *AssignmentService {
	return &AssignmentService{
		tx:        tx,
		lockStore: lockStore,
		policy:    policy,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

// AcceptResult describes the ride after a successful acceptance.
type AcceptResult struct {
	Ride          *domain.Ride
	Group         domain.RouteGroup
	NewRide       bool
	OccupiedSeats int
	Capacity      int
}

// AcceptRequest accepts a single pending request.
func (s *AssignmentService) AcceptRequest(ctx context.Context, caller domain.Caller, requestID string) (*AcceptResult, error) {
	return s.AcceptGroup(ctx, caller, []string{requestID})
}

// AcceptGroup adds a route group to the driver's ongoing ride, creating the
// ride if needed.
//
// Everything happens in one transaction in this order: ride created or its
// fare increased, one assignment per request, then each request claimed
// with a pending→accepted compare-and-set. If the vehicle would be
// overfilled nothing is written and ErrCapacityExceeded is returned. If
// another driver claimed any request first the whole acceptance is rolled
// back with ErrRequestAlreadyClaimed.
func (s *AssignmentService) AcceptGroup(ctx context.Context, caller domain.Caller, requestIDs []string) (*AcceptResult, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, err
	}
	ids, err := normalizeIDs(requestIDs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { observability.AcceptLatency.Observe(time.Since(start).Seconds()) }()

	if s.lockStore != nil {
		token, err := s.lockStore.AcquireDriverLock(ctx, caller.ID, driverLockTTL)
		if err != nil {
			observability.Acceptances.WithLabelValues(observability.OutcomeError).Inc()
			return nil, storeErr("acquire driver lock", err)
		}
		if token == "" {
			observability.Acceptances.WithLabelValues(observability.OutcomeConflict).Inc()
			return nil, ErrAcceptInProgress
		}
		defer func() {
			if err := s.lockStore.ReleaseDriverLock(context.WithoutCancel(ctx), caller.ID, token); err != nil {
				s.log.WithError(err).WithField("driver_id", caller.ID).Warn("failed to release driver lock")
			}
		}()
	}

	var result *AcceptResult
	err = s.tx.WithinTx(ctx, func(st repository.Stores) error {
		var txErr error
		result, txErr = s.accept(ctx, st, caller.ID, ids)
		return txErr
	})
	if err != nil {
		s.recordFailure(caller.ID, ids, err)
		return nil, storeErr("accept requests", err)
	}

	observability.Acceptances.WithLabelValues(observability.OutcomeAccepted).Inc()
	s.log.WithFields(logrus.Fields{
		"driver_id": caller.ID,
		"ride_id":   result.Ride.ID,
		"requests":  len(ids),
		"seats":     result.OccupiedSeats,
		"capacity":  result.Capacity,
	}).Info("requests accepted")

	if s.notifier != nil {
		s.notifier.NotifyGroupAccepted(ctx, result.Ride, result.Group.Requests)
	}
	return result, nil
}

func (s *AssignmentService) accept(ctx context.Context, st repository.Stores, driverID string, ids []string) (*AcceptResult, error) {
	vehicle, err := st.Vehicles.GetByDriverID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoVehicle
		}
		return nil, storeErr("load vehicle", err)
	}

	requests, err := st.Requests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("load requests", err)
	}
	if len(requests) != len(ids) {
		return nil, fmt.Errorf("ride request: %w", repository.ErrNotFound)
	}
	for _, req := range requests {
		if req.Status != domain.RequestStatusPending {
			return nil, fmt.Errorf("%w: %s is %s", ErrRequestNotPending, req.ID, req.Status)
		}
	}

	groups := GroupRequests(requests, s.policy)
	if len(groups) != 1 {
		return nil, invalid("request_ids", ErrMixedRoutes)
	}
	group := groups[0]

	ride, err := st.Rides.LockOngoingByDriverID(ctx, driverID)
	if err != nil {
		return nil, storeErr("lock ongoing ride", err)
	}

	occupied := 0
	if ride != nil {
		onboard, err := st.Requests.ListByRide(ctx, ride.ID)
		if err != nil {
			return nil, storeErr("load ride requests", err)
		}
		for _, r := range onboard {
			occupied += r.SeatsRequired
		}
	}

	if occupied+group.TotalSeats > vehicle.SeatingCapacity {
		return nil, fmt.Errorf("%w: %d seats taken, %d requested, capacity %d",
			ErrCapacityExceeded, occupied, group.TotalSeats, vehicle.SeatingCapacity)
	}

	now := s.now()
	newRide := ride == nil
	if newRide {
		ride = &domain.Ride{
			ID:        uuid.New().String(),
			DriverID:  driverID,
			VehicleID: vehicle.ID,
			Status:    domain.RideStatusOngoing,
			FinalFare: group.TotalEarnings,
			CreatedAt: now,
		}
		if err := st.Rides.Create(ctx, ride); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, ErrAcceptInProgress
			}
			return nil, storeErr("create ride", err)
		}
	} else {
		if err := st.Rides.AddFare(ctx, ride.ID, group.TotalEarnings); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrRideNotOngoing
			}
			return nil, storeErr("update ride fare", err)
		}
		ride.FinalFare = roundCurrency(ride.FinalFare + group.TotalEarnings)
	}

	for _, req := range group.Requests {
		err := st.Assignments.Create(ctx, &domain.RideAssignment{
			ID:        uuid.New().String(),
			RideID:    ride.ID,
			RequestID: req.ID,
			CreatedAt: now,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, fmt.Errorf("%w: %s", ErrRequestAlreadyClaimed, req.ID)
			}
			return nil, storeErr("create assignment", err)
		}
	}

	for _, req := range group.Requests {
		err := st.Requests.TransitionStatus(ctx, req.ID, domain.RequestStatusPending, domain.RequestStatusAccepted)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, fmt.Errorf("%w: %s", ErrRequestAlreadyClaimed, req.ID)
			}
			return nil, storeErr("claim request", err)
		}
		req.Status = domain.RequestStatusAccepted
	}

	return &AcceptResult{
		Ride:          ride,
		Group:         group,
		NewRide:       newRide,
		OccupiedSeats: occupied + group.TotalSeats,
		Capacity:      vehicle.SeatingCapacity,
	}, nil
}

func (s *AssignmentService) recordFailure(driverID string, ids []string, err error) {
	outcome := observability.OutcomeError
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		outcome = observability.OutcomeCapacityExceeded
	case errors.Is(err, ErrRequestAlreadyClaimed),
		errors.Is(err, ErrRequestNotPending),
		errors.Is(err, ErrAcceptInProgress):
		outcome = observability.OutcomeConflict
	}
	observability.Acceptances.WithLabelValues(outcome).Inc()

	entry := s.log.WithError(err).WithFields(logrus.Fields{"driver_id": driverID, "requests": ids})
	if outcome == observability.OutcomeError {
		entry.Error("acceptance failed")
		return
	}
	entry.Info("acceptance rejected")
}

// normalizeIDs trims, drops duplicates and rejects blanks.
func normalizeIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, invalid("request_ids", ErrInvalidRequestIDs)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, invalid("request_ids", ErrInvalidRequestIDs)
	}
	return out, nil
}
