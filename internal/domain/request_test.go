package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStatus_CanTransition(t *testing.T) {
	order := []RequestStatus{
		RequestStatusPending,
		RequestStatusAccepted,
		RequestStatusCompleted,
		RequestStatusPaid,
	}

	for i, from := range order {
		for j, to := range order {
			assert.Equal(t, j == i+1, from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, RequestStatusPending.CanTransition(RequestStatusCancelled))
	for _, s := range order[1:] {
		assert.False(t, s.CanTransition(RequestStatusCancelled), "%s -> cancelled", s)
		assert.False(t, RequestStatusCancelled.CanTransition(s), "cancelled -> %s", s)
	}
}

func TestRequestStatus_IsTerminal(t *testing.T) {
	assert.True(t, RequestStatusPaid.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
	assert.False(t, RequestStatusPending.IsTerminal())
	assert.False(t, RequestStatusAccepted.IsTerminal())
	assert.False(t, RequestStatusCompleted.IsTerminal())
}

func TestRideDetail_OccupiedSeats(t *testing.T) {
	d := &RideDetail{Requests: []*RideRequest{{SeatsRequired: 2}, {SeatsRequired: 1}}}
	assert.Equal(t, 3, d.OccupiedSeats())
	assert.Equal(t, 0, (&RideDetail{}).OccupiedSeats())
}
