package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/events"
)

const publishTimeout = 2 * time.Second

// NotificationService tells riders and drivers about lifecycle changes. Each
// notification is logged and published as an event; delivery failures are
// logged and never fail the operation that triggered them.
type NotificationService struct {
	publisher events.Publisher
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher events.Publisher, log logrus.FieldLogger) *NotificationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &NotificationService{publisher: publisher, log: log, now: time.Now}
}

// NotifyRequestSubmitted confirms a new request to its rider.
func (s *NotificationService) NotifyRequestSubmitted(ctx context.Context, req *domain.RideRequest) {
	s.send(ctx, events.Event{
		Type:        events.TypeRequestSubmitted,
		RecipientID: req.RiderID,
		RequestIDs:  []string{req.ID},
		Title:       "Request Submitted",
		Message:     fmt.Sprintf("Looking for a driver from %s to %s", req.PickupLocation, req.Destination),
		Amount:      req.EstimatedFare,
	})
}

// NotifyRequestCancelled confirms a cancellation to its rider.
func (s *NotificationService) NotifyRequestCancelled(ctx context.Context, req *domain.RideRequest) {
	s.send(ctx, events.Event{
		Type:        events.TypeRequestCancelled,
		RecipientID: req.RiderID,
		RequestIDs:  []string{req.ID},
		Title:       "Request Cancelled",
		Message:     "Your ride request has been cancelled.",
	})
}

// NotifyGroupAccepted tells each rider in the group that a driver is coming.
func (s *NotificationService) NotifyGroupAccepted(ctx context.Context, ride *domain.Ride, requests []*domain.RideRequest) {
	batch := make([]events.Event, 0, len(requests))
	for _, req := range requests {
		batch = append(batch, events.Event{
			Type:        events.TypeGroupAccepted,
			RideID:      ride.ID,
			DriverID:    ride.DriverID,
			RecipientID: req.RiderID,
			RequestIDs:  []string{req.ID},
			Title:       "Driver Assigned",
			Message:     fmt.Sprintf("A driver accepted your ride from %s to %s", req.PickupLocation, req.Destination),
		})
	}
	s.send(ctx, batch...)
}

// NotifyRideCompleted asks each rider on the ride to pay.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride, requests []*domain.RideRequest, policy FarePolicy) {
	batch := make([]events.Event, 0, len(requests))
	for _, req := range requests {
		amount := policy.RiderPrice(req.EstimatedFare, req.SeatsRequired)
		batch = append(batch, events.Event{
			Type:        events.TypeRideCompleted,
			RideID:      ride.ID,
			DriverID:    ride.DriverID,
			RecipientID: req.RiderID,
			RequestIDs:  []string{req.ID},
			Title:       "Ride Completed",
			Message:     fmt.Sprintf("Your ride is complete. Amount due: %.2f", amount),
			Amount:      amount,
		})
	}
	s.send(ctx, batch...)
}

// NotifyPaymentRecorded sends a receipt to the rider.
func (s *NotificationService) NotifyPaymentRecorded(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, events.Event{
		Type:        events.TypePaymentRecorded,
		RideID:      payment.RideID,
		RecipientID: payment.RiderID,
		RequestIDs:  []string{payment.RequestID},
		Title:       "Payment Received",
		Message:     fmt.Sprintf("Payment of %.2f received. Thank you for riding with us!", payment.Amount),
		Amount:      payment.Amount,
	})
}

func (s *NotificationService) send(ctx context.Context, batch ...events.Event) {
	if len(batch) == 0 {
		return
	}
	at := s.now()
	for i := range batch {
		batch[i].OccurredAt = at
		s.log.WithFields(logrus.Fields{
			"type":      batch[i].Type,
			"recipient": batch[i].RecipientID,
			"ride_id":   batch[i].RideID,
		}).Info(batch[i].Title)
	}

	// The triggering request may already be finishing; publish on a
	// detached context with its own deadline.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, batch...); err != nil {
		s.log.WithError(err).WithField("type", batch[0].Type).Warn("failed to publish notification")
	}
}
