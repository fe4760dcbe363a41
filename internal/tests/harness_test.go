package tests

import (
	"time"

	"carpool/internal/domain"
	"carpool/internal/geo"
	"carpool/internal/logger"
	"carpool/internal/service"
)

// harness wires every service to one MockStore.
type harness struct {
	store     *MockStore
	locks     *MockLockStore
	publisher *RecordingPublisher
	psp       *MockPSP
	geocoder  *StubGeocoder
	router    *StubRouter
	policy    service.FarePolicy

	requests    *service.RequestService
	grouping    *service.GroupingService
	assignments *service.AssignmentService
	rides       *service.RideService
	payments    *service.PaymentService
	earnings    *service.EarningsService
	users       *service.UserService
}

func newHarness() *harness {
	log := logger.Discard()
	h := &harness{
		store:     NewMockStore(),
		locks:     NewMockLockStore(),
		publisher: &RecordingPublisher{},
		psp:       &MockPSP{},
		geocoder: &StubGeocoder{Places: map[string]geo.Point{
			"Kochi":      {Lat: 9.9312, Lng: 76.2673},
			"Trivandrum": {Lat: 8.5241, Lng: 76.9366},
		}},
		router: &StubRouter{DistanceKm: 10},
		policy: service.DefaultFarePolicy(),
	}

	notifier := service.NewNotificationService(h.publisher, log)
	h.requests = service.NewRequestService(h.store.Requests(), h.geocoder, h.router, h.policy, notifier, log)
	h.grouping = service.NewGroupingService(h.store.Requests(), h.policy, log)
	h.assignments = service.NewAssignmentService(h.store, h.locks, h.policy, notifier, log)
	h.rides = service.NewRideService(h.store, h.store.Rides(), h.store.Requests(), h.policy, notifier, log)
	h.payments = service.NewPaymentService(h.store, h.store.Payments(), h.store.Requests(), h.store.Assignments(), h.psp, h.policy, notifier, log)
	h.earnings = service.NewEarningsService(h.store.Rides())
	h.users = service.NewUserService(h.store, h.store.Riders())
	return h
}

func riderCaller(id string) domain.Caller  { return domain.Caller{ID: id, Role: domain.RoleRider} }
func driverCaller(id string) domain.Caller { return domain.Caller{ID: id, Role: domain.RoleDriver} }

// pendingRequest builds a Kochi to Trivandrum request.
func pendingRequest(id, riderID string, seats int, fare float64) *domain.RideRequest {
	return &domain.RideRequest{
		ID:             id,
		RiderID:        riderID,
		PickupLocation: "Kochi",
		Destination:    "Trivandrum",
		SeatsRequired:  seats,
		EstimatedFare:  fare,
		Status:         domain.RequestStatusPending,
	}
}

// ongoingRide builds an ongoing ride created at the given time.
func ongoingRide(id, driverID string, fare float64, at time.Time) *domain.Ride {
	return &domain.Ride{
		ID:        id,
		DriverID:  driverID,
		VehicleID: "vehicle-" + driverID,
		Status:    domain.RideStatusOngoing,
		FinalFare: fare,
		CreatedAt: at,
	}
}
