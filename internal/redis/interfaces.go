package redis

import (
	"context"
	"time"

	"carpool/internal/geo"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, error)
	ReleaseDriverLock(ctx context.Context, driverID, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ geo.PlaceStore     = (*PlaceStore)(nil)
	_ geo.RouteStore     = (*RouteCache)(nil)
)
