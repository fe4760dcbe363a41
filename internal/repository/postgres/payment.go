package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
)

const paymentColumns = `id, ride_id, request_id, rider_id, amount, status, provider_ref, idempotency_key, payment_date`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var rideID sql.NullString
	if p.RideID != "" {
		rideID = sql.NullString{String: p.RideID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		p.ID,
		rideID,
		p.RequestID,
		p.RiderID,
		p.Amount,
		p.Status,
		p.ProviderRef,
		p.IdempotencyKey,
		p.PaymentDate,
	)
	return mapWriteError(err)
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	p, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListByRider returns the rider's payments, newest first.
func (r *PaymentRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE rider_id = $1 ORDER BY payment_date DESC`

	rows, err := r.q.QueryContext(ctx, query, riderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(s rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	var rideID sql.NullString
	err := s.Scan(
		&p.ID,
		&rideID,
		&p.RequestID,
		&p.RiderID,
		&p.Amount,
		&p.Status,
		&p.ProviderRef,
		&p.IdempotencyKey,
		&p.PaymentDate,
	)
	if err != nil {
		return nil, err
	}
	if rideID.Valid {
		p.RideID = rideID.String
	}
	return &p, nil
}
