package service

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"carpool/internal/domain"
	"carpool/internal/observability"
	"carpool/internal/repository"
)

// GroupRequests partitions pending requests into route groups.
//
// Requests share a group iff their trimmed, lower-cased pickup and
// destination are equal. Groups are ordered by total seats descending and
// then by the position of their first request in the input. Requests that
// are not pending are ignored.
func GroupRequests(requests []*domain.RideRequest, policy FarePolicy) []domain.RouteGroup {
	index := make(map[routeKey]int)
	var groups []domain.RouteGroup

	for _, req := range requests {
		if req == nil || req.Status != domain.RequestStatusPending {
			continue
		}

		pickup := displayPlace(req.PickupLocation, domain.UnknownPickup)
		destination := displayPlace(req.Destination, domain.UnknownDestination)
		key := newRouteKey(pickup, destination)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.RouteGroup{
				Key:         key.String(),
				Pickup:      pickup,
				Destination: destination,
			})
		}

		g := &groups[i]
		g.RequestIDs = append(g.RequestIDs, req.ID)
		g.Requests = append(g.Requests, req)
		g.TotalSeats += req.SeatsRequired
		g.TotalEarnings += policy.DriverEarnings(req.EstimatedFare)
	}

	for i := range groups {
		groups[i].TotalEarnings = roundCurrency(groups[i].TotalEarnings)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].TotalSeats > groups[b].TotalSeats
	})
	return groups
}

// routeKey is a normalized pickup/destination pair. Groups are indexed by
// the pair itself so place names containing the label separator never
// collide.
type routeKey struct {
	pickup      string
	destination string
}

func newRouteKey(pickup, destination string) routeKey {
	return routeKey{
		pickup:      strings.ToLower(strings.TrimSpace(pickup)),
		destination: strings.ToLower(strings.TrimSpace(destination)),
	}
}

// String is the display label of the pair, e.g. "kochi||trivandrum".
func (k routeKey) String() string {
	return k.pickup + "||" + k.destination
}

// SameRoute reports whether two pickup/destination pairs group together.
func SameRoute(pickupA, destinationA, pickupB, destinationB string) bool {
	return newRouteKey(pickupA, destinationA) == newRouteKey(pickupB, destinationB)
}

// RouteKey is the display label of a normalized pickup/destination pair.
// Distinct pairs may share a label; compare pairs with SameRoute.
func RouteKey(pickup, destination string) string {
	return newRouteKey(pickup, destination).String()
}

func displayPlace(s, placeholder string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return placeholder
}

// GroupingService serves the driver's view of pending requests.
type GroupingService struct {
	requestRepo repository.RideRequestRepository
	policy      FarePolicy
	log         logrus.FieldLogger
}

// NewGroupingService creates a new GroupingService.
func NewGroupingService(requestRepo repository.RideRequestRepository, policy FarePolicy, log logrus.FieldLogger) *GroupingService {
	return &GroupingService{requestRepo: requestRepo, policy: policy, log: log}
}

// PendingGroups loads every pending request and groups it by route. A read
// failure is reported as a DataStoreError, never as an empty result.
func (s *GroupingService) PendingGroups(ctx context.Context, caller domain.Caller) ([]domain.RouteGroup, error) {
	if err := requireRole(caller, domain.RoleDriver); err != nil {
		return nil, err
	}

	pending, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to load pending requests")
		return nil, storeErr("list pending requests", err)
	}

	groups := GroupRequests(pending, s.policy)
	observability.GroupsBuilt.Observe(float64(len(groups)))
	if groups == nil {
		groups = []domain.RouteGroup{}
	}
	return groups, nil
}
