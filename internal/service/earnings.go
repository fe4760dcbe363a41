package service

import (
	"context"
	"time"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// Earnings summarizes a driver's completed rides.
type Earnings struct {
	Year             int
	Month            time.Month
	Monthly          float64
	Total            float64
	MonthlyRideCount int
	RideCount        int
}

// EarningsService reads driver earnings from completed rides.
type EarningsService struct {
	rideRepo repository.RideRepository
}

// NewEarningsService creates a new EarningsService.
func NewEarningsService(rideRepo repository.RideRepository) *EarningsService {
	return &EarningsService{rideRepo: rideRepo}
}

// DriverEarnings sums final fares of the driver's completed rides, all-time
// and for rides created in the given calendar month (UTC).
func (s *EarningsService) DriverEarnings(ctx context.Context, caller domain.Caller, year int, month time.Month) (*Earnings, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, err
	}
	if year < 1 || month < time.January || month > time.December {
		return nil, invalid("period", ErrInvalidPeriod)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	total, count, err := s.rideRepo.SumCompletedFares(ctx, caller.ID, time.Time{}, time.Time{})
	if err != nil {
		return nil, storeErr("sum earnings", err)
	}
	monthly, monthlyCount, err := s.rideRepo.SumCompletedFares(ctx, caller.ID, from, to)
	if err != nil {
		return nil, storeErr("sum monthly earnings", err)
	}

	return &Earnings{
		Year:             year,
		Month:            month,
		Monthly:          roundCurrency(monthly),
		Total:            roundCurrency(total),
		MonthlyRideCount: monthlyCount,
		RideCount:        count,
	}, nil
}
