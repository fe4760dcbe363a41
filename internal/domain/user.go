package domain

import "time"

// Role distinguishes the two kinds of callers.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Rider represents a rider in the system.
type Rider struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Driver represents a driver in the system.
type Driver struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	ID   string
	Role Role
}
