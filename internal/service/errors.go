package service

import (
	"errors"
	"fmt"

	"carpool/internal/repository"
)

var (
	// ErrInvalidCaller is returned when no caller identity was supplied.
	ErrInvalidCaller = errors.New("invalid caller")

	// ErrMissingID is returned when a path or body id is blank.
	ErrMissingID = errors.New("id is required")

	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrMissingLocation is returned when pickup or destination is blank.
	ErrMissingLocation = errors.New("pickup and destination are required")

	// ErrInvalidSeats is returned when the seat count is not positive.
	ErrInvalidSeats = errors.New("seats must be at least 1")

	// ErrInvalidDistance is returned when a distance is negative or not a number.
	ErrInvalidDistance = errors.New("distance must be a non-negative number")

	// ErrInvalidRequestIDs is returned when an acceptance names no requests.
	ErrInvalidRequestIDs = errors.New("at least one request id is required")

	// ErrMixedRoutes is returned when accepted requests do not share a route.
	ErrMixedRoutes = errors.New("requests do not share a pickup and destination")

	// ErrInvalidName is returned when a registration has no name.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidVehicle is returned when vehicle details are incomplete.
	ErrInvalidVehicle = errors.New("vehicle model, plate number and a seating capacity of at least 1 are required")

	// ErrInvalidPeriod is returned when an earnings period is out of range.
	ErrInvalidPeriod = errors.New("invalid year or month")

	// ErrInvalidPaymentAmount is returned when the computed amount is not positive.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrCapacityExceeded is returned when accepting would overfill the vehicle.
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")

	// ErrRequestNotPending is returned when accepting a request that is no longer pending.
	ErrRequestNotPending = errors.New("ride request is not pending")

	// ErrRequestAlreadyClaimed is returned when another driver accepted the request first.
	ErrRequestAlreadyClaimed = errors.New("ride request already claimed")

	// ErrAcceptInProgress is returned when the driver has a concurrent acceptance running.
	ErrAcceptInProgress = errors.New("another acceptance for this driver is in progress")

	// ErrInvalidTransition is returned when a status change is not a forward move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoVehicle is returned when a driver without a vehicle accepts requests.
	ErrNoVehicle = errors.New("driver has no registered vehicle")

	// ErrRideNotOngoing is returned when completing a ride that is already completed.
	ErrRideNotOngoing = errors.New("ride is not ongoing")

	// ErrRequestNotCompleted is returned when paying for a request whose ride has not finished.
	ErrRequestNotCompleted = errors.New("ride request is not completed")

	// ErrPaymentFailed is returned when the payment processor rejects a charge.
	ErrPaymentFailed = errors.New("payment failed")

	// ErrAlreadyRegistered is returned when a profile already exists for the caller.
	ErrAlreadyRegistered = errors.New("already registered")
)

// ValidationError reports bad input detected before any side effect.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// DataStoreError reports a failed read or write against the database or
// Redis. The operation was aborted and any transaction rolled back.
type DataStoreError struct {
	Op  string
	Err error
}

func (e *DataStoreError) Error() string {
	return fmt.Sprintf("data store: %s: %v", e.Op, e.Err)
}

func (e *DataStoreError) Unwrap() error { return e.Err }

// passthrough lists outcomes that are answers, not store failures.
var passthrough = []error{
	repository.ErrNotFound,
	ErrForbidden,
	ErrCapacityExceeded,
	ErrRequestNotPending,
	ErrRequestAlreadyClaimed,
	ErrAcceptInProgress,
	ErrInvalidTransition,
	ErrNoVehicle,
	ErrRideNotOngoing,
	ErrRequestNotCompleted,
	ErrPaymentFailed,
	ErrAlreadyRegistered,
	ErrMixedRoutes,
}

// storeErr wraps err in a DataStoreError unless it already carries meaning.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var de *DataStoreError
	if errors.As(err, &ve) || errors.As(err, &de) {
		return err
	}
	for _, known := range passthrough {
		if errors.Is(err, known) {
			return err
		}
	}
	return &DataStoreError{Op: op, Err: err}
}
