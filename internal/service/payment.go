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
	"carpool/internal/repository"
)

// PSP is the interface for a payment service provider. Charge returns the
// provider's reference for the charge; Void cancels a charge that could not
// be recorded.
type PSP interface {
	Charge(ctx context.Context, amount float64, reference string) (string, error)
	Void(ctx context.Context, providerRef string) error
}

// RecordOnlyPSP records payments without moving money.
type RecordOnlyPSP struct{}

// Charge always succeeds.
func (RecordOnlyPSP) Charge(_ context.Context, _ float64, reference string) (string, error) {
	return "offline:" + reference, nil
}

// Void has nothing to undo.
func (RecordOnlyPSP) Void(context.Context, string) error { return nil }

// PaymentService records riders paying for completed requests.
type PaymentService struct {
	tx             repository.Transactor
	paymentRepo    repository.PaymentRepository
	requestRepo    repository.RideRequestRepository
	assignmentRepo repository.AssignmentRepository
	psp            PSP
	policy         FarePolicy
	notifier       *NotificationService
	log            logrus.FieldLogger
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	tx repository.Transactor,
	paymentRepo repository.PaymentRepository,
	requestRepo repository.RideRequestRepository,
	assignmentRepo repository.AssignmentRepository,
	psp PSP,
	policy FarePolicy,
	notifier *NotificationService,
	log logrus.FieldLogger,
) *PaymentService {
	if psp == nil {
		psp = RecordOnlyPSP{}
	}
	return &PaymentService{
		tx:             tx,
		paymentRepo:    paymentRepo,
		requestRepo:    requestRepo,
		assignmentRepo: assignmentRepo,
		psp:            psp,
		policy:         policy,
		notifier:       notifier,
		log:            log,
		now:            time.Now,
	}
}

// PayForRequest charges the rider for a completed request and moves it to
// paid. Paying twice for the same request returns the first payment.
func (s *PaymentService) PayForRequest(ctx context.Context, caller domain.Caller, requestID string) (*domain.Payment, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, invalid("request_id", ErrMissingID)
	}

	idempotencyKey := fmt.Sprintf("payment:%s", requestID)

	existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, storeErr("load payment", err)
	}
	if existing != nil {
		if existing.RiderID != caller.ID {
			return nil, ErrForbidden
		}
		return existing, nil
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, storeErr("load ride request", err)
	}
	if req.RiderID != caller.ID {
		return nil, ErrForbidden
	}
	if req.Status != domain.RequestStatusCompleted {
		return nil, ErrRequestNotCompleted
	}

	amount := s.policy.RiderPrice(req.EstimatedFare, req.SeatsRequired)
	if amount <= 0 {
		return nil, invalid("amount", ErrInvalidPaymentAmount)
	}

	var rideID string
	assignment, err := s.assignmentRepo.GetByRequestID(ctx, req.ID)
	switch {
	case err == nil:
		rideID = assignment.RideID
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, storeErr("load assignment", err)
	}

	ref, err := s.psp.Charge(ctx, amount, req.ID)
	if err != nil {
		s.log.WithError(err).WithField("request_id", req.ID).Warn("charge declined")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	payment := &domain.Payment{
		ID:             uuid.New().String(),
		RideID:         rideID,
		RequestID:      req.ID,
		RiderID:        caller.ID,
		Amount:         amount,
		Status:         domain.PaymentStatusCompleted,
		ProviderRef:    ref,
		IdempotencyKey: idempotencyKey,
		PaymentDate:    s.now(),
	}

	err = s.tx.WithinTx(ctx, func(st repository.Stores) error {
		if err := st.Payments.Create(ctx, payment); err != nil {
			return storeErr("create payment", err)
		}
		err := st.Requests.TransitionStatus(ctx, req.ID, domain.RequestStatusCompleted, domain.RequestStatusPaid)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrInvalidTransition
			}
			return storeErr("mark request paid", err)
		}
		return nil
	})
	if err != nil {
		// A concurrent call with the same key won the race.
		if errors.Is(err, repository.ErrDuplicate) {
			if winner, getErr := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey); getErr == nil && winner != nil {
				// The provider dedupes by request, so both calls may hold the same charge.
				if winner.ProviderRef != ref {
					s.voidCharge(ctx, req.ID, ref)
				}
				return winner, nil
			}
		}
		s.voidCharge(ctx, req.ID, ref)
		return nil, storeErr("record payment", err)
	}

	observability.PaymentsTotal.Inc()
	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"request_id": req.ID,
		"amount":     amount,
	}).Info("payment recorded")

	if s.notifier != nil {
		s.notifier.NotifyPaymentRecorded(ctx, payment)
	}
	return payment, nil
}

// voidCharge cancels a charge whose payment row was rolled back.
func (s *PaymentService) voidCharge(ctx context.Context, requestID, ref string) {
	if err := s.psp.Void(context.WithoutCancel(ctx), ref); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id":   requestID,
			"provider_ref": ref,
		}).Error("failed to void charge after rollback")
	}
}

// PaymentSummary is a rider's payment history.
type PaymentSummary struct {
	Payments  []*domain.Payment
	TotalPaid float64
}

// History returns the caller's payments and their total.
func (s *PaymentService) History(ctx context.Context, caller domain.Caller) (*PaymentSummary, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByRider(ctx, caller.ID)
	if err != nil {
		return nil, storeErr("list payments", err)
	}

	summary := &PaymentSummary{Payments: payments}
	if summary.Payments == nil {
		summary.Payments = []*domain.Payment{}
	}
	for _, p := range payments {
		if p.Status == domain.PaymentStatusCompleted {
			summary.TotalPaid += p.Amount
		}
	}
	summary.TotalPaid = roundCurrency(summary.TotalPaid)
	return summary, nil
}
