package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/repository"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 1. CAPACITY TRACKING
// ──────────────────────────────────────────────

func TestAccept_FillingVehicleExactly_Succeeds(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(&domain.RideRequest{ID: "onboard", RiderID: "rider-0", PickupLocation: "Kochi", Destination: "Trivandrum", SeatsRequired: 3, EstimatedFare: 100, Status: domain.RequestStatusAccepted})
	h.store.AddRide(ongoingRide("ride-1", "driver-1", 60, time.Now()), "onboard")
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))

	res, err := h.assignments.AcceptRequest(context.Background(), driverCaller("driver-1"), "req-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if res.NewRide {
		t.Error("expected the ongoing ride to be reused")
	}
	if res.OccupiedSeats != 4 || res.Capacity != 4 {
		t.Errorf("expected 4/4 seats, got %d/%d", res.OccupiedSeats, res.Capacity)
	}
	if got := h.store.OccupiedSeats("ride-1"); got != 4 {
		t.Errorf("expected 4 occupied seats stored, got %d", got)
	}
	if got := h.store.Ride("ride-1").FinalFare; got != 90 {
		t.Errorf("expected final fare 90, got %v", got)
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusAccepted {
		t.Errorf("expected request accepted, got %s", got)
	}
}

func TestAccept_OverCapacity_Rejected_NoMutation(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(&domain.RideRequest{ID: "onboard", RiderID: "rider-0", PickupLocation: "Kochi", Destination: "Trivandrum", SeatsRequired: 3, EstimatedFare: 100, Status: domain.RequestStatusAccepted})
	h.store.AddRide(ongoingRide("ride-1", "driver-1", 60, time.Now()), "onboard")
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 2, 50))

	_, err := h.assignments.AcceptRequest(context.Background(), driverCaller("driver-1"), "req-1")
	if !errors.Is(err, service.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got: %v", err)
	}

	if got := h.store.Request("req-1").Status; got != domain.RequestStatusPending {
		t.Errorf("expected request still pending, got %s", got)
	}
	if got := h.store.CountAssignments(); got != 1 {
		t.Errorf("expected 1 assignment, got %d", got)
	}
	if got := h.store.Ride("ride-1").FinalFare; got != 60 {
		t.Errorf("expected final fare unchanged at 60, got %v", got)
	}
	if got := h.store.CountRides(); got != 1 {
		t.Errorf("expected 1 ride, got %d", got)
	}
}

func TestAccept_CapacityBoundaries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		capacity int
		occupied int
		incoming int
		wantErr  bool
	}{
		{name: "empty vehicle, partial fill", capacity: 4, occupied: 0, incoming: 2},
		{name: "empty vehicle, exact fill", capacity: 4, occupied: 0, incoming: 4},
		{name: "empty vehicle, overfill", capacity: 4, occupied: 0, incoming: 5, wantErr: true},
		{name: "single seat car", capacity: 1, occupied: 0, incoming: 1},
		{name: "full vehicle", capacity: 3, occupied: 3, incoming: 1, wantErr: true},
		{name: "one seat short", capacity: 6, occupied: 4, incoming: 3, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			h.store.AddVehicle("driver-1", tc.capacity)
			if tc.occupied > 0 {
				h.store.AddRequest(&domain.RideRequest{ID: "onboard", RiderID: "rider-0", PickupLocation: "A", Destination: "B", SeatsRequired: tc.occupied, EstimatedFare: 10, Status: domain.RequestStatusAccepted})
				h.store.AddRide(ongoingRide("ride-1", "driver-1", 6, time.Now()), "onboard")
			}
			h.store.AddRequest(pendingRequest("req-1", "rider-1", tc.incoming, 10))

			_, err := h.assignments.AcceptRequest(context.Background(), driverCaller("driver-1"), "req-1")
			if tc.wantErr {
				if !errors.Is(err, service.ErrCapacityExceeded) {
					t.Errorf("expected ErrCapacityExceeded, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────
// 2. ACCEPTANCE FLOW
// ──────────────────────────────────────────────

func TestAccept_Group_CreatesRide(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 2, 100))
	h.store.AddRequest(&domain.RideRequest{ID: "req-2", RiderID: "rider-2", PickupLocation: " kochi ", Destination: "TRIVANDRUM", SeatsRequired: 1, EstimatedFare: 50})

	res, err := h.assignments.AcceptGroup(context.Background(), driverCaller("driver-1"), []string{"req-1", "req-2"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !res.NewRide {
		t.Error("expected a new ride")
	}
	if res.Ride.FinalFare != 90 {
		t.Errorf("expected final fare 90, got %v", res.Ride.FinalFare)
	}
	if res.Group.TotalSeats != 3 {
		t.Errorf("expected 3 seats, got %d", res.Group.TotalSeats)
	}
	stored := h.store.Ride(res.Ride.ID)
	if stored == nil || stored.Status != domain.RideStatusOngoing {
		t.Fatalf("expected ongoing ride stored, got %+v", stored)
	}
	for _, id := range []string{"req-1", "req-2"} {
		if got := h.store.Request(id).Status; got != domain.RequestStatusAccepted {
			t.Errorf("expected %s accepted, got %s", id, got)
		}
	}
	if got := h.store.CountAssignments(); got != 2 {
		t.Errorf("expected 2 assignments, got %d", got)
	}
	if got := len(h.publisher.Events(events.TypeGroupAccepted)); got != 2 {
		t.Errorf("expected 2 acceptance notifications, got %d", got)
	}
	if h.locks.IsLocked("driver-1") {
		t.Error("expected driver lock to be released")
	}
}

func TestAccept_SecondGroupJoinsOngoingRide(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 2, 100))
	h.store.AddRequest(&domain.RideRequest{ID: "req-2", RiderID: "rider-2", PickupLocation: "Aluva", Destination: "Kakkanad", SeatsRequired: 2, EstimatedFare: 40})
	ctx := context.Background()

	first, err := h.assignments.AcceptRequest(ctx, driverCaller("driver-1"), "req-1")
	if err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	second, err := h.assignments.AcceptRequest(ctx, driverCaller("driver-1"), "req-2")
	if err != nil {
		t.Fatalf("second acceptance failed: %v", err)
	}

	if second.Ride.ID != first.Ride.ID {
		t.Error("expected both groups on the same ride")
	}
	if h.store.CountRides() != 1 {
		t.Errorf("expected 1 ride, got %d", h.store.CountRides())
	}
	if got := h.store.Ride(first.Ride.ID).FinalFare; got != 84 {
		t.Errorf("expected final fare 84, got %v", got)
	}
	if second.OccupiedSeats != 4 {
		t.Errorf("expected 4 occupied seats, got %d", second.OccupiedSeats)
	}
}

func TestAccept_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		setup   func(h *harness)
		caller  domain.Caller
		ids     []string
		wantErr error
	}{
		{
			name:    "rider cannot accept",
			caller:  riderCaller("rider-1"),
			ids:     []string{"req-1"},
			wantErr: service.ErrForbidden,
		},
		{
			name:    "no request ids",
			caller:  driverCaller("driver-1"),
			ids:     []string{" "},
			wantErr: service.ErrInvalidRequestIDs,
		},
		{
			name:    "unknown request",
			caller:  driverCaller("driver-1"),
			ids:     []string{"missing"},
			wantErr: repository.ErrNotFound,
		},
		{
			name: "request already accepted",
			setup: func(h *harness) {
				h.store.SetRequestStatus("req-1", domain.RequestStatusAccepted)
			},
			caller:  driverCaller("driver-1"),
			ids:     []string{"req-1"},
			wantErr: service.ErrRequestNotPending,
		},
		{
			name: "requests on different routes",
			setup: func(h *harness) {
				h.store.AddRequest(&domain.RideRequest{ID: "req-2", RiderID: "rider-2", PickupLocation: "Aluva", Destination: "Kochi", SeatsRequired: 1})
			},
			caller:  driverCaller("driver-1"),
			ids:     []string{"req-1", "req-2"},
			wantErr: service.ErrMixedRoutes,
		},
		{
			name: "route names that only match once joined",
			setup: func(h *harness) {
				h.store.AddRequest(&domain.RideRequest{ID: "req-a", RiderID: "rider-2", PickupLocation: "A||B", Destination: "C", SeatsRequired: 1, EstimatedFare: 50})
				h.store.AddRequest(&domain.RideRequest{ID: "req-b", RiderID: "rider-3", PickupLocation: "A", Destination: "B||C", SeatsRequired: 1, EstimatedFare: 50})
			},
			caller:  driverCaller("driver-1"),
			ids:     []string{"req-a", "req-b"},
			wantErr: service.ErrMixedRoutes,
		},
		{
			name:    "driver without vehicle",
			caller:  driverCaller("driver-2"),
			ids:     []string{"req-1"},
			wantErr: service.ErrNoVehicle,
		},
		{
			name: "acceptance already running for driver",
			setup: func(h *harness) {
				h.locks.Hold("driver-1")
			},
			caller:  driverCaller("driver-1"),
			ids:     []string{"req-1"},
			wantErr: service.ErrAcceptInProgress,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			h.store.AddVehicle("driver-1", 4)
			h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))
			if tc.setup != nil {
				tc.setup(h)
			}

			_, err := h.assignments.AcceptGroup(context.Background(), tc.caller, tc.ids)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
			if h.store.CountRides() != 0 {
				t.Errorf("expected no ride, got %d", h.store.CountRides())
			}
			if h.store.CountAssignments() != 0 {
				t.Errorf("expected no assignment, got %d", h.store.CountAssignments())
			}
		})
	}
}

// ──────────────────────────────────────────────
// 3. ATOMICITY & RACES
// ──────────────────────────────────────────────

func TestAccept_LostClaim_RollsBackRideAndAssignments(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))
	h.store.AddRequest(pendingRequest("req-2", "rider-2", 1, 50))

	// Another driver claims req-2 between the read and the compare-and-set.
	h.store.BeforeTransition = func(id string) {
		if id == "req-2" {
			h.store.SetRequestStatus(id, domain.RequestStatusAccepted)
		}
	}

	_, err := h.assignments.AcceptGroup(context.Background(), driverCaller("driver-1"), []string{"req-1", "req-2"})
	if !errors.Is(err, service.ErrRequestAlreadyClaimed) {
		t.Fatalf("expected ErrRequestAlreadyClaimed, got: %v", err)
	}

	if h.store.CountRides() != 0 {
		t.Errorf("expected ride creation rolled back, got %d rides", h.store.CountRides())
	}
	if h.store.CountAssignments() != 0 {
		t.Errorf("expected assignments rolled back, got %d", h.store.CountAssignments())
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusPending {
		t.Errorf("expected req-1 back to pending, got %s", got)
	}
	if h.store.RollbackCount != 1 {
		t.Errorf("expected 1 rollback, got %d", h.store.RollbackCount)
	}
}

func TestAccept_AssignmentWriteFails_NoOrphanRide(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))
	h.store.CreateAssignmentError = ErrMockDBDown

	_, err := h.assignments.AcceptRequest(context.Background(), driverCaller("driver-1"), "req-1")

	var dse *service.DataStoreError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DataStoreError, got: %v", err)
	}
	if !errors.Is(err, ErrMockDBDown) {
		t.Errorf("expected cause to be preserved, got: %v", err)
	}
	if h.store.CountRides() != 0 {
		t.Errorf("expected no orphaned ride, got %d", h.store.CountRides())
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusPending {
		t.Errorf("expected request pending, got %s", got)
	}
}

func TestAccept_ConcurrentDrivers_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))
	const drivers = 8
	for i := 0; i < drivers; i++ {
		h.store.AddVehicle(driverID(i), 4)
	}

	var wg sync.WaitGroup
	errs := make([]error, drivers)
	start := make(chan struct{})
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = h.assignments.AcceptRequest(context.Background(), driverCaller(driverID(i)), "req-1")
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, service.ErrRequestNotPending), errors.Is(err, service.ErrRequestAlreadyClaimed):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly 1 winner, got %d", wins)
	}
	if h.store.CountRides() != 1 {
		t.Errorf("expected 1 ride, got %d", h.store.CountRides())
	}
	if h.store.CountAssignments() != 1 {
		t.Errorf("expected 1 assignment, got %d", h.store.CountAssignments())
	}
}

func TestAccept_LockStoreDown_ReturnsDataStoreError(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	h.store.AddRequest(pendingRequest("req-1", "rider-1", 1, 50))
	h.locks.AcquireError = ErrMockTimeout

	_, err := h.assignments.AcceptRequest(context.Background(), driverCaller("driver-1"), "req-1")

	var dse *service.DataStoreError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DataStoreError, got: %v", err)
	}
	if h.store.TxCount != 0 {
		t.Error("expected no transaction to start")
	}
}

func driverID(i int) string {
	return "driver-" + string(rune('a'+i))
}
