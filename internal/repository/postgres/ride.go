package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const rideColumns = `id, driver_id, vehicle_id, status, final_fare, created_at, completed_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.DriverID,
		ride.VehicleID,
		ride.Status,
		ride.FinalFare,
		ride.CreatedAt,
		timeOrNull(ride.CompletedAt),
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetOngoingByDriverID returns the driver's ongoing ride, or nil if none.
func (r *RideRepository) GetOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 AND status = $2 ORDER BY created_at LIMIT 1`
	return r.getOngoing(ctx, query, driverID)
}

// LockOngoingByDriverID locks the driver's ongoing ride row for the rest of
// the transaction.
func (r *RideRepository) LockOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 AND status = $2 ORDER BY created_at LIMIT 1 FOR UPDATE`
	return r.getOngoing(ctx, query, driverID)
}

func (r *RideRepository) getOngoing(ctx context.Context, query, driverID string) (*domain.Ride, error) {
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusOngoing))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ride, nil
}

// AddFare increments the final fare of an ongoing ride.
func (r *RideRepository) AddFare(ctx context.Context, id string, amount float64) error {
	query := `UPDATE rides SET final_fare = final_fare + $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, amount, id, domain.RideStatusOngoing)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

// Complete moves an ongoing ride to completed.
func (r *RideRepository) Complete(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE rides SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.q.ExecContext(ctx, query, domain.RideStatusCompleted, at, id, domain.RideStatusOngoing)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

// SumCompletedFares sums final_fare over completed rides created in [from, to).
func (r *RideRepository) SumCompletedFares(ctx context.Context, driverID string, from, to time.Time) (float64, int, error) {
	query := `
		SELECT COALESCE(SUM(final_fare), 0)::float8, COUNT(*)
		FROM rides
		WHERE driver_id = $1 AND status = $2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
	`
	var total float64
	var count int
	err := r.q.QueryRowContext(ctx, query,
		driverID,
		domain.RideStatusCompleted,
		timeOrNull(from),
		timeOrNull(to),
	).Scan(&total, &count)
	if err != nil {
		return 0, 0, err
	}
	return total, count, nil
}

func scanRide(s rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var completedAt sql.NullTime
	err := s.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.VehicleID,
		&ride.Status,
		&ride.FinalFare,
		&ride.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}
	return &ride, nil
}

// AssignmentRepository is a PostgreSQL implementation of repository.AssignmentRepository.
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new PostgreSQL assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

// NewAssignmentRepositoryWithTx creates an assignment repository using a transaction.
func NewAssignmentRepositoryWithTx(tx *sql.Tx) *AssignmentRepository {
	return &AssignmentRepository{q: tx}
}

// Create links a request to a ride.
func (r *AssignmentRepository) Create(ctx context.Context, a *domain.RideAssignment) error {
	query := `INSERT INTO ride_assignments (id, ride_id, request_id, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, a.ID, a.RideID, a.RequestID, a.CreatedAt)
	return mapWriteError(err)
}

// GetByRequestID returns the assignment carrying a request.
func (r *AssignmentRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.RideAssignment, error) {
	query := `SELECT id, ride_id, request_id, created_at FROM ride_assignments WHERE request_id = $1`

	var a domain.RideAssignment
	err := r.q.QueryRowContext(ctx, query, requestID).Scan(&a.ID, &a.RideID, &a.RequestID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByRideID returns the assignments of a ride.
func (r *AssignmentRepository) ListByRideID(ctx context.Context, rideID string) ([]*domain.RideAssignment, error) {
	query := `SELECT id, ride_id, request_id, created_at FROM ride_assignments WHERE ride_id = $1 ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RideAssignment
	for rows.Next() {
		var a domain.RideAssignment
		if err := rows.Scan(&a.ID, &a.RideID, &a.RequestID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
