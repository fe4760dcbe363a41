package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// UserService registers rider and driver profiles for authenticated callers.
type UserService struct {
	tx        repository.Transactor
	riderRepo repository.RiderRepository
	now       func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(tx repository.Transactor, riderRepo repository.RiderRepository) *UserService {
	return &UserService{tx: tx, riderRepo: riderRepo, now: time.Now}
}

// RegisterRider creates the caller's rider profile.
func (s *UserService) RegisterRider(ctx context.Context, caller domain.Caller, name, phone string) (*domain.Rider, error) {
	if err := requireRole(caller, domain.RoleRider); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", ErrInvalidName)
	}

	rider := &domain.Rider{
		ID:        caller.ID,
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: s.now(),
	}
	if err := s.riderRepo.Create(ctx, rider); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRegistered
		}
		return nil, storeErr("create rider", err)
	}
	return rider, nil
}

// DriverRegistration is a driver profile with its vehicle.
type DriverRegistration struct {
	Name            string
	Phone           string
	VehicleModel    string
	PlateNumber     string
	SeatingCapacity int
}

// RegisterDriver creates the caller's driver profile and vehicle together.
func (s *UserService) RegisterDriver(ctx context.Context, caller domain.Caller, reg DriverRegistration) (*domain.Driver, *domain.Vehicle, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, nil, err
	}
	reg.Name = strings.TrimSpace(reg.Name)
	reg.VehicleModel = strings.TrimSpace(reg.VehicleModel)
	reg.PlateNumber = strings.ToUpper(strings.TrimSpace(reg.PlateNumber))
	if reg.Name == "" {
		return nil, nil, invalid("name", ErrInvalidName)
	}
	if reg.VehicleModel == "" || reg.PlateNumber == "" || reg.SeatingCapacity < 1 {
		return nil, nil, invalid("vehicle", ErrInvalidVehicle)
	}

	now := s.now()
	driver := &domain.Driver{
		ID:        caller.ID,
		Name:      reg.Name,
		Phone:     strings.TrimSpace(reg.Phone),
		CreatedAt: now,
	}
	vehicle := &domain.Vehicle{
		ID:              uuid.New().String(),
		DriverID:        caller.ID,
		Model:           reg.VehicleModel,
		PlateNumber:     reg.PlateNumber,
		SeatingCapacity: reg.SeatingCapacity,
		CreatedAt:       now,
	}

	err := s.tx.WithinTx(ctx, func(st repository.Stores) error {
		if err := st.Drivers.Create(ctx, driver); err != nil {
			return err
		}
		return st.Vehicles.Create(ctx, vehicle)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrAlreadyRegistered
		}
		return nil, nil, storeErr("register driver", err)
	}
	return driver, vehicle, nil
}
