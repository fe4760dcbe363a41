package service

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/domain"
)

func req(id, pickup, dest string, seats int, fare float64) *domain.RideRequest {
	return &domain.RideRequest{
		ID:             id,
		PickupLocation: pickup,
		Destination:    dest,
		SeatsRequired:  seats,
		EstimatedFare:  fare,
		Status:         domain.RequestStatusPending,
	}
}

func TestGroupRequests_NormalizesRoute(t *testing.T) {
	groups := GroupRequests([]*domain.RideRequest{
		req("a", "Kochi", "Trivandrum", 2, 100),
		req("b", " kochi ", "TRIVANDRUM", 1, 50),
	}, DefaultFarePolicy())

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, []string{"a", "b"}, g.RequestIDs)
	assert.Equal(t, 3, g.TotalSeats)
	assert.Equal(t, 90.0, g.TotalEarnings)
	assert.Equal(t, "Kochi", g.Pickup)
	assert.Equal(t, "kochi||trivandrum", g.Key)
}

func TestGroupRequests_OrderAndPlaceholders(t *testing.T) {
	accepted := req("x", "Kochi", "Trivandrum", 4, 100)
	accepted.Status = domain.RequestStatusAccepted

	groups := GroupRequests([]*domain.RideRequest{
		req("a", "Aluva", "Kochi", 1, 10),
		req("b", "", "  ", 2, 10),
		req("c", "Kakkanad", "Vyttila", 1, 10),
		accepted,
		nil,
	}, DefaultFarePolicy())

	require.Len(t, groups, 3)
	assert.Equal(t, domain.UnknownPickup, groups[0].Pickup)
	assert.Equal(t, domain.UnknownDestination, groups[0].Destination)
	// Ties keep first-seen order.
	assert.Equal(t, "Aluva", groups[1].Pickup)
	assert.Equal(t, "Kakkanad", groups[2].Pickup)
}

func TestGroupRequests_Empty(t *testing.T) {
	assert.Empty(t, GroupRequests(nil, DefaultFarePolicy()))
}

func TestGroupRequests_SeparatorInPlaceNames(t *testing.T) {
	groups := GroupRequests([]*domain.RideRequest{
		req("a", "A||B", "C", 1, 100),
		req("b", "A", "B||C", 1, 100),
	}, DefaultFarePolicy())

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a"}, groups[0].RequestIDs)
	assert.Equal(t, []string{"b"}, groups[1].RequestIDs)
	assert.False(t, SameRoute("A||B", "C", "A", "B||C"))
	assert.True(t, SameRoute(" Kochi", "TRIVANDRUM ", "kochi", "trivandrum"))
}

func TestGroupRequests_IsPartition(t *testing.T) {
	places := []string{"Kochi", " kochi", "KOCHI ", "Aluva", "aluva", "Trivandrum", ""}
	rnd := rand.New(rand.NewPCG(1, 2))
	policy := DefaultFarePolicy()

	for round := 0; round < 50; round++ {
		var requests []*domain.RideRequest
		n := rnd.IntN(30)
		for i := 0; i < n; i++ {
			requests = append(requests, req(
				fmt.Sprintf("r%d-%d", round, i),
				places[rnd.IntN(len(places))],
				places[rnd.IntN(len(places))],
				1+rnd.IntN(4),
				float64(rnd.IntN(500)),
			))
		}

		groups := GroupRequests(requests, policy)

		seen := make(map[string]string)
		for _, g := range groups {
			seats := 0
			earnings := 0.0
			for _, r := range g.Requests {
				_, dup := seen[r.ID]
				require.False(t, dup, "request %s in two groups", r.ID)
				seen[r.ID] = g.Key
				seats += r.SeatsRequired
				earnings += r.EstimatedFare * policy.RiderShare
				assert.Equal(t, g.Key, RouteKey(displayPlace(r.PickupLocation, domain.UnknownPickup), displayPlace(r.Destination, domain.UnknownDestination)))
				assert.True(t, SameRoute(g.Pickup, g.Destination, displayPlace(r.PickupLocation, domain.UnknownPickup), displayPlace(r.Destination, domain.UnknownDestination)))
			}
			assert.Equal(t, seats, g.TotalSeats)
			assert.InDelta(t, earnings, g.TotalEarnings, 0.005)
		}
		assert.Len(t, seen, len(requests))

		for i := 1; i < len(groups); i++ {
			assert.GreaterOrEqual(t, groups[i-1].TotalSeats, groups[i].TotalSeats)
		}
		keys := make(map[string]bool)
		for _, g := range groups {
			assert.False(t, keys[g.Key], "duplicate group key %q", g.Key)
			keys[g.Key] = true
		}
	}
}
