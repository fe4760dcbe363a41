package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"carpool/internal/repository"
)

// Transactor runs work against transaction-scoped repositories.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

var _ repository.Transactor = (*Transactor)(nil)

// WithinTx begins a transaction, hands fn repositories bound to it, and
// commits only if fn succeeds.
func (t *Transactor) WithinTx(ctx context.Context, fn func(s repository.Stores) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stores := repository.Stores{
		Requests:    NewRideRequestRepositoryWithTx(tx),
		Rides:       NewRideRepositoryWithTx(tx),
		Assignments: NewAssignmentRepositoryWithTx(tx),
		Payments:    NewPaymentRepositoryWithTx(tx),
		Vehicles:    NewVehicleRepositoryWithTx(tx),
		Drivers:     NewDriverRepositoryWithTx(tx),
	}

	if err = fn(stores); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
