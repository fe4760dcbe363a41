package repository

import (
	"context"

	"carpool/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByIdempotencyKey retrieves a payment by its idempotency key.
	// Returns nil if no payment exists with the given key.
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)

	// ListByRider returns the rider's payments, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.Payment, error)
}
