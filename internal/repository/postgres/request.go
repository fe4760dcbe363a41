package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const requestColumns = `id, rider_id, pickup_location, destination, pickup_lat, pickup_lng, destination_lat, destination_lng, distance_km, seats_required, estimated_fare, status, created_at`

// RideRequestRepository is a PostgreSQL implementation of repository.RideRequestRepository.
type RideRequestRepository struct {
	q Querier
}

// NewRideRequestRepository creates a new PostgreSQL ride request repository.
func NewRideRequestRepository(db *sql.DB) *RideRequestRepository {
	return &RideRequestRepository{q: db}
}

// NewRideRequestRepositoryWithTx creates a ride request repository using a transaction.
func NewRideRequestRepositoryWithTx(tx *sql.Tx) *RideRequestRepository {
	return &RideRequestRepository{q: tx}
}

// Create persists a new request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO ride_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RiderID,
		req.PickupLocation,
		req.Destination,
		req.PickupLat,
		req.PickupLng,
		req.DestinationLat,
		req.DestinationLng,
		req.DistanceKm,
		req.SeatsRequired,
		req.EstimatedFare,
		req.Status,
		req.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a request by ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = $1`

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetByIDs retrieves the requests with the given IDs, oldest first.
func (r *RideRequestRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.RideRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = ANY($1) ORDER BY created_at, id`
	return r.list(ctx, query, pq.Array(ids))
}

// ListPending returns every pending request, oldest first.
func (r *RideRequestRepository) ListPending(ctx context.Context) ([]*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE status = $1 ORDER BY created_at, id`
	return r.list(ctx, query, domain.RequestStatusPending)
}

// ListByRider returns the rider's most recent requests, newest first.
func (r *RideRequestRepository) ListByRider(ctx context.Context, riderID string, limit int) ([]*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE rider_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, riderID, limit)
}

// ListByRide returns the requests assigned to a ride.
func (r *RideRequestRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.RideRequest, error) {
	query := `
		SELECT rr.id, rr.rider_id, rr.pickup_location, rr.destination, rr.pickup_lat, rr.pickup_lng, rr.destination_lat, rr.destination_lng, rr.distance_km, rr.seats_required, rr.estimated_fare, rr.status, rr.created_at
		FROM ride_requests rr
		JOIN ride_assignments ra ON ra.request_id = rr.id
		WHERE ra.ride_id = $1
		ORDER BY ra.created_at, rr.id
	`
	return r.list(ctx, query, rideID)
}

// TransitionStatus is a compare-and-set on the status column.
func (r *RideRequestRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	query := `UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrConflict)
}

func (r *RideRequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.RideRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RideRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(s rowScanner) (*domain.RideRequest, error) {
	var req domain.RideRequest
	err := s.Scan(
		&req.ID,
		&req.RiderID,
		&req.PickupLocation,
		&req.Destination,
		&req.PickupLat,
		&req.PickupLng,
		&req.DestinationLat,
		&req.DestinationLng,
		&req.DistanceKm,
		&req.SeatsRequired,
		&req.EstimatedFare,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
