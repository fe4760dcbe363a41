package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/service"
)

// ──────────────────────────────────────────────
// 4. RIDE COMPLETION
// ──────────────────────────────────────────────

// acceptedRide puts req-1 (2 seats) and req-2 (1 seat) on ride-1 for driver-1.
func acceptedRide(h *harness) {
	h.store.AddVehicle("driver-1", 4)
	r1 := pendingRequest("req-1", "rider-1", 2, 100)
	r1.Status = domain.RequestStatusAccepted
	r2 := pendingRequest("req-2", "rider-2", 1, 50)
	r2.Status = domain.RequestStatusAccepted
	h.store.AddRequest(r1)
	h.store.AddRequest(r2)
	h.store.AddRide(ongoingRide("ride-1", "driver-1", 90, time.Now()), "req-1", "req-2")
}

func TestCompleteRide_MovesRequestsForward(t *testing.T) {
	t.Parallel()

	h := newHarness()
	acceptedRide(h)

	detail, err := h.rides.CompleteRide(context.Background(), driverCaller("driver-1"), "ride-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if detail.Ride.Status != domain.RideStatusCompleted || detail.Ride.CompletedAt.IsZero() {
		t.Errorf("expected completed ride with timestamp, got %+v", detail.Ride)
	}
	if detail.OccupiedSeats() != 3 {
		t.Errorf("expected 3 seats on the ride, got %d", detail.OccupiedSeats())
	}
	for _, id := range []string{"req-1", "req-2"} {
		if got := h.store.Request(id).Status; got != domain.RequestStatusCompleted {
			t.Errorf("expected %s completed, got %s", id, got)
		}
	}

	due := h.publisher.Events(events.TypeRideCompleted)
	if len(due) != 2 {
		t.Fatalf("expected 2 payment reminders, got %d", len(due))
	}
	if due[0].Amount != 60 || due[1].Amount != 30 {
		t.Errorf("expected amounts 60 and 30, got %v and %v", due[0].Amount, due[1].Amount)
	}
}

func TestCompleteRide_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		caller  domain.Caller
		rideID  string
		twice   bool
		wantErr error
	}{
		{name: "another driver's ride", caller: driverCaller("driver-2"), rideID: "ride-1", wantErr: service.ErrForbidden},
		{name: "rider cannot complete", caller: riderCaller("rider-1"), rideID: "ride-1", wantErr: service.ErrForbidden},
		{name: "already completed", caller: driverCaller("driver-1"), rideID: "ride-1", twice: true, wantErr: service.ErrRideNotOngoing},
		{name: "missing ride id", caller: driverCaller("driver-1"), rideID: "", wantErr: service.ErrMissingID},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			acceptedRide(h)
			ctx := context.Background()

			if tc.twice {
				if _, err := h.rides.CompleteRide(ctx, tc.caller, tc.rideID); err != nil {
					t.Fatalf("first completion failed: %v", err)
				}
			}
			_, err := h.rides.CompleteRide(ctx, tc.caller, tc.rideID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestCompleteRide_TransitionFailure_RollsBack(t *testing.T) {
	t.Parallel()

	h := newHarness()
	acceptedRide(h)
	h.store.TransitionError = ErrMockDBDown

	_, err := h.rides.CompleteRide(context.Background(), driverCaller("driver-1"), "ride-1")

	var dse *service.DataStoreError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DataStoreError, got: %v", err)
	}
	if got := h.store.Ride("ride-1").Status; got != domain.RideStatusOngoing {
		t.Errorf("expected ride still ongoing, got %s", got)
	}
}

func TestActiveRides_ReturnsPassengers(t *testing.T) {
	t.Parallel()

	h := newHarness()
	acceptedRide(h)
	ctx := context.Background()

	active, err := h.rides.ActiveRides(ctx, driverCaller("driver-1"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(active) != 1 || len(active[0].Requests) != 2 {
		t.Fatalf("expected 1 ride with 2 requests, got %+v", active)
	}

	none, err := h.rides.ActiveRides(ctx, driverCaller("driver-9"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %v", none)
	}
}

// ──────────────────────────────────────────────
// 5. PAYMENT IDEMPOTENCY & FAILURE
// ──────────────────────────────────────────────

func completedRide(t *testing.T, h *harness) {
	t.Helper()
	acceptedRide(h)
	if _, err := h.rides.CompleteRide(context.Background(), driverCaller("driver-1"), "ride-1"); err != nil {
		t.Fatalf("completing ride: %v", err)
	}
}

func TestPayment_CompletedRequest_MarkedPaid(t *testing.T) {
	t.Parallel()

	h := newHarness()
	completedRide(t, h)

	payment, err := h.payments.PayForRequest(context.Background(), riderCaller("rider-1"), "req-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if payment.Amount != 60 {
		t.Errorf("expected amount 60, got %v", payment.Amount)
	}
	if payment.RideID != "ride-1" {
		t.Errorf("expected ride-1, got %q", payment.RideID)
	}
	if payment.ProviderRef != "psp-req-1" {
		t.Errorf("expected provider reference, got %q", payment.ProviderRef)
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusPaid {
		t.Errorf("expected request paid, got %s", got)
	}
	if got := len(h.publisher.Events(events.TypePaymentRecorded)); got != 1 {
		t.Errorf("expected 1 receipt, got %d", got)
	}
	if voided := h.psp.Voided(); len(voided) != 0 {
		t.Errorf("expected no voided charges, got %v", voided)
	}
}

func TestPayment_ChargesQuotedTotal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		distanceKm float64
		seats      int
	}{
		{distanceKm: 12.125, seats: 1},
		{distanceKm: 12.125, seats: 3},
		{distanceKm: 5.3, seats: 2},
	}

	for _, tc := range testCases {
		h := newHarness()
		h.router.DistanceKm = tc.distanceKm
		h.store.AddVehicle("driver-1", 4)
		ctx := context.Background()

		req, quote, err := h.requests.Submit(ctx, riderCaller("rider-1"), service.TripInput{
			Pickup: "Kochi", Destination: "Trivandrum", Seats: tc.seats,
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		accepted, err := h.assignments.AcceptRequest(ctx, driverCaller("driver-1"), req.ID)
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if _, err := h.rides.CompleteRide(ctx, driverCaller("driver-1"), accepted.Ride.ID); err != nil {
			t.Fatalf("complete: %v", err)
		}

		payment, err := h.payments.PayForRequest(ctx, riderCaller("rider-1"), req.ID)
		if err != nil {
			t.Fatalf("pay: %v", err)
		}
		if payment.Amount != quote.Fare.TotalFare {
			t.Errorf("%v km, %d seats: quoted %v but charged %v", tc.distanceKm, tc.seats, quote.Fare.TotalFare, payment.Amount)
		}
	}
}

func TestPayment_DuplicateRequest_DoesNotChargeTwice(t *testing.T) {
	t.Parallel()

	h := newHarness()
	completedRide(t, h)
	ctx := context.Background()

	first, err := h.payments.PayForRequest(ctx, riderCaller("rider-1"), "req-1")
	if err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	second, err := h.payments.PayForRequest(ctx, riderCaller("rider-1"), "req-1")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if first.ID != second.ID {
		t.Error("expected the retry to return the original payment")
	}
	if h.store.CountPayments() != 1 {
		t.Errorf("expected 1 payment, got %d", h.store.CountPayments())
	}
	if h.psp.ChargeCallCount != 1 {
		t.Errorf("expected 1 charge, got %d", h.psp.ChargeCallCount)
	}
}

func TestPayment_PSPFailure_RequestStaysCompleted(t *testing.T) {
	t.Parallel()

	h := newHarness()
	completedRide(t, h)
	h.psp.FailError = errors.New("card declined")

	_, err := h.payments.PayForRequest(context.Background(), riderCaller("rider-1"), "req-1")
	if !errors.Is(err, service.ErrPaymentFailed) {
		t.Fatalf("expected ErrPaymentFailed, got: %v", err)
	}
	if h.store.CountPayments() != 0 {
		t.Errorf("expected no payment, got %d", h.store.CountPayments())
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusCompleted {
		t.Errorf("expected request still completed, got %s", got)
	}

	// Retrying after the processor recovers succeeds.
	h.psp.FailError = nil
	if _, err := h.payments.PayForRequest(context.Background(), riderCaller("rider-1"), "req-1"); err != nil {
		t.Errorf("expected retry to succeed, got: %v", err)
	}
}

func TestPayment_RecordFailure_VoidsCharge(t *testing.T) {
	t.Parallel()

	h := newHarness()
	completedRide(t, h)
	h.store.CreatePaymentError = ErrMockDBDown

	_, err := h.payments.PayForRequest(context.Background(), riderCaller("rider-1"), "req-1")
	var de *service.DataStoreError
	if !errors.As(err, &de) {
		t.Fatalf("expected DataStoreError, got: %v", err)
	}
	if h.psp.ChargeCallCount != 1 {
		t.Errorf("expected 1 charge, got %d", h.psp.ChargeCallCount)
	}
	if voided := h.psp.Voided(); len(voided) != 1 || voided[0] != "psp-req-1" {
		t.Errorf("expected the charge to be voided, got %v", voided)
	}
	if h.store.CountPayments() != 0 {
		t.Errorf("expected no payment, got %d", h.store.CountPayments())
	}
	if got := h.store.Request("req-1").Status; got != domain.RequestStatusCompleted {
		t.Errorf("expected request still completed, got %s", got)
	}
}

func TestPayment_Rejections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		complete  bool
		caller    domain.Caller
		requestID string
		wantErr   error
	}{
		{name: "ride not completed", caller: riderCaller("rider-1"), requestID: "req-1", wantErr: service.ErrRequestNotCompleted},
		{name: "someone else's request", complete: true, caller: riderCaller("rider-2"), requestID: "req-1", wantErr: service.ErrForbidden},
		{name: "driver cannot pay", complete: true, caller: driverCaller("driver-1"), requestID: "req-1", wantErr: service.ErrForbidden},
		{name: "missing request id", complete: true, caller: riderCaller("rider-1"), requestID: " ", wantErr: service.ErrMissingID},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			if tc.complete {
				completedRide(t, h)
			} else {
				acceptedRide(h)
			}

			_, err := h.payments.PayForRequest(context.Background(), tc.caller, tc.requestID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}
			if h.psp.ChargeCallCount != 0 {
				t.Error("expected no charge")
			}
		})
	}
}

func TestPayment_History_SumsPayments(t *testing.T) {
	t.Parallel()

	h := newHarness()
	completedRide(t, h)
	ctx := context.Background()

	if _, err := h.payments.PayForRequest(ctx, riderCaller("rider-1"), "req-1"); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	summary, err := h.payments.History(ctx, riderCaller("rider-1"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(summary.Payments) != 1 || summary.TotalPaid != 60 {
		t.Errorf("expected 1 payment totalling 60, got %d totalling %v", len(summary.Payments), summary.TotalPaid)
	}

	empty, err := h.payments.History(ctx, riderCaller("rider-2"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if empty.Payments == nil || empty.TotalPaid != 0 {
		t.Errorf("expected empty history, got %+v", empty)
	}
}

// ──────────────────────────────────────────────
// 6. EARNINGS LEDGER
// ──────────────────────────────────────────────

func TestEarnings_MonthlyAndTotal(t *testing.T) {
	t.Parallel()

	h := newHarness()
	inMonth := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i, fare := range []float64{200, 150} {
		r := ongoingRide("march-"+string(rune('a'+i)), "driver-1", fare, inMonth.AddDate(0, 0, i*10))
		r.Status = domain.RideStatusCompleted
		h.store.AddRide(r)
	}
	outside := ongoingRide("feb", "driver-1", 300, time.Date(2024, time.February, 29, 23, 0, 0, 0, time.UTC))
	outside.Status = domain.RideStatusCompleted
	h.store.AddRide(outside)
	// Ongoing rides and other drivers do not count.
	h.store.AddRide(ongoingRide("open", "driver-1", 999, inMonth))
	other := ongoingRide("other", "driver-2", 500, inMonth)
	other.Status = domain.RideStatusCompleted
	h.store.AddRide(other)

	got, err := h.earnings.DriverEarnings(context.Background(), driverCaller("driver-1"), 2024, time.March)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if got.Monthly != 350 {
		t.Errorf("expected monthly 350, got %v", got.Monthly)
	}
	if got.Total != 650 {
		t.Errorf("expected total 650, got %v", got.Total)
	}
	if got.MonthlyRideCount != 2 || got.RideCount != 3 {
		t.Errorf("expected 2 monthly and 3 total rides, got %d and %d", got.MonthlyRideCount, got.RideCount)
	}
}

func TestEarnings_Rejections(t *testing.T) {
	t.Parallel()

	h := newHarness()
	ctx := context.Background()

	if _, err := h.earnings.DriverEarnings(ctx, driverCaller("driver-1"), 2024, 13); !errors.Is(err, service.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got: %v", err)
	}
	if _, err := h.earnings.DriverEarnings(ctx, riderCaller("rider-1"), 2024, time.March); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got: %v", err)
	}

	h.store.SumFaresError = ErrMockDBDown
	_, err := h.earnings.DriverEarnings(ctx, driverCaller("driver-1"), 2024, time.March)
	var dse *service.DataStoreError
	if !errors.As(err, &dse) {
		t.Errorf("expected DataStoreError, got: %v", err)
	}
}

// ──────────────────────────────────────────────
// 7. STATUS NEVER MOVES BACKWARD
// ──────────────────────────────────────────────

func TestStatus_FullLifecycle_OnlyForward(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVehicle("driver-1", 4)
	ctx := context.Background()

	req, _, err := h.requests.Submit(ctx, riderCaller("rider-1"), service.TripInput{Pickup: "Kochi", Destination: "Trivandrum", Seats: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	res, err := h.assignments.AcceptRequest(ctx, driverCaller("driver-1"), req.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// An accepted request can be neither cancelled nor accepted again.
	if _, err := h.requests.Cancel(ctx, riderCaller("rider-1"), req.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on cancel, got: %v", err)
	}
	h.store.AddVehicle("driver-2", 4)
	if _, err := h.assignments.AcceptRequest(ctx, driverCaller("driver-2"), req.ID); !errors.Is(err, service.ErrRequestNotPending) {
		t.Errorf("expected ErrRequestNotPending on re-accept, got: %v", err)
	}

	if _, err := h.rides.CompleteRide(ctx, driverCaller("driver-1"), res.Ride.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := h.payments.PayForRequest(ctx, riderCaller("rider-1"), req.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	final := h.store.Request(req.ID)
	if final.Status != domain.RequestStatusPaid {
		t.Fatalf("expected paid, got %s", final.Status)
	}
	if !final.Status.IsTerminal() {
		t.Error("expected paid to be terminal")
	}
	if _, err := h.requests.Cancel(ctx, riderCaller("rider-1"), req.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition after payment, got: %v", err)
	}
}
