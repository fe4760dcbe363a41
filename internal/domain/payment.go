package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Payment records a rider settling a completed request.
type Payment struct {
	ID             string
	RideID         string
	RequestID      string
	RiderID        string
	Amount         float64
	Status         PaymentStatus
	ProviderRef    string
	IdempotencyKey string
	PaymentDate    time.Time
}
