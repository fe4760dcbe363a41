package service

import (
	"strings"

	"carpool/internal/domain"
)

func requireRole(caller domain.Caller, role domain.Role) error {
	if strings.TrimSpace(caller.ID) == "" {
		return invalid("caller", ErrInvalidCaller)
	}
	if caller.Role != role {
		return ErrForbidden
	}
	return nil
}
