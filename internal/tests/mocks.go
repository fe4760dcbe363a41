package tests

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"carpool/internal/domain"
	"carpool/internal/events"
	"carpool/internal/geo"
	"carpool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory database shared by every mock repository. It
// enforces the same unique constraints as the Postgres schema and rolls back
// writes made inside a failed WithinTx.
type MockStore struct {
	mu          sync.Mutex
	riders      map[string]*domain.Rider
	drivers     map[string]*domain.Driver
	vehicles    map[string]*domain.Vehicle
	requests    map[string]*domain.RideRequest
	rides       map[string]*domain.Ride
	assignments map[string]*domain.RideAssignment
	payments    map[string]*domain.Payment

	// txMu serializes transactions the way row locks do.
	txMu sync.Mutex

	// Counters for verification
	TxCount             int32
	RollbackCount       int32
	TransitionCallCount int32

	// Error injection
	ListPendingError      error
	TransitionError       error
	CreateAssignmentError error
	CreatePaymentError    error
	SumFaresError         error

	// BeforeTransition runs before each status compare-and-set, outside the
	// data lock. Tests use it to simulate a competing writer.
	BeforeTransition func(id string)
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		riders:      make(map[string]*domain.Rider),
		drivers:     make(map[string]*domain.Driver),
		vehicles:    make(map[string]*domain.Vehicle),
		requests:    make(map[string]*domain.RideRequest),
		rides:       make(map[string]*domain.Ride),
		assignments: make(map[string]*domain.RideAssignment),
		payments:    make(map[string]*domain.Payment),
	}
}

// Stores returns repositories backed by this store.
func (s *MockStore) Stores() repository.Stores {
	return repository.Stores{
		Requests:    s.Requests(),
		Rides:       s.Rides(),
		Assignments: s.Assignments(),
		Payments:    s.Payments(),
		Vehicles:    s.Vehicles(),
		Drivers:     s.Drivers(),
	}
}

func (s *MockStore) Requests() *MockRequestRepository       { return &MockRequestRepository{s: s} }
func (s *MockStore) Rides() *MockRideRepository             { return &MockRideRepository{s: s} }
func (s *MockStore) Assignments() *MockAssignmentRepository { return &MockAssignmentRepository{s: s} }
func (s *MockStore) Payments() *MockPaymentRepository       { return &MockPaymentRepository{s: s} }
func (s *MockStore) Vehicles() *MockVehicleRepository       { return &MockVehicleRepository{s: s} }
func (s *MockStore) Drivers() *MockDriverRepository         { return &MockDriverRepository{s: s} }
func (s *MockStore) Riders() *MockRiderRepository           { return &MockRiderRepository{s: s} }

// WithinTx implements repository.Transactor.
func (s *MockStore) WithinTx(ctx context.Context, fn func(repository.Stores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	atomic.AddInt32(&s.TxCount, 1)

	snap := s.snapshot()
	if err := fn(s.Stores()); err != nil {
		atomic.AddInt32(&s.RollbackCount, 1)
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	riders      map[string]domain.Rider
	drivers     map[string]domain.Driver
	vehicles    map[string]domain.Vehicle
	requests    map[string]domain.RideRequest
	rides       map[string]domain.Ride
	assignments map[string]domain.RideAssignment
	payments    map[string]domain.Payment
}

func (s *MockStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storeSnapshot{
		riders:      copyMap(s.riders),
		drivers:     copyMap(s.drivers),
		vehicles:    copyMap(s.vehicles),
		requests:    copyMap(s.requests),
		rides:       copyMap(s.rides),
		assignments: copyMap(s.assignments),
		payments:    copyMap(s.payments),
	}
}

func (s *MockStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.riders = pointerMap(snap.riders)
	s.drivers = pointerMap(snap.drivers)
	s.vehicles = pointerMap(snap.vehicles)
	s.requests = pointerMap(snap.requests)
	s.rides = pointerMap(snap.rides)
	s.assignments = pointerMap(snap.assignments)
	s.payments = pointerMap(snap.payments)
}

func copyMap[T any](in map[string]*T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = *v
	}
	return out
}

func pointerMap[T any](in map[string]T) map[string]*T {
	out := make(map[string]*T, len(in))
	for k, v := range in {
		v := v
		out[k] = &v
	}
	return out
}

// ──────────────────────────────────────────────
// TEST SETUP HELPERS
// ──────────────────────────────────────────────

// AddVehicle registers a driver with a vehicle of the given capacity.
func (s *MockStore) AddVehicle(driverID string, capacity int) *domain.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[driverID] = &domain.Driver{ID: driverID, Name: driverID, CreatedAt: time.Now()}
	v := &domain.Vehicle{
		ID:              "vehicle-" + driverID,
		DriverID:        driverID,
		Model:           "Test Car",
		PlateNumber:     "KL-" + driverID,
		SeatingCapacity: capacity,
		CreatedAt:       time.Now(),
	}
	s.vehicles[v.ID] = v
	copy := *v
	return &copy
}

// AddRequest stores a request. Zero CreatedAt values are filled in so the
// insertion order is preserved.
func (s *MockStore) AddRequest(req *domain.RideRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(s.requests)) * time.Second)
	}
	copy := *req
	s.requests[req.ID] = &copy
}

// AddRide stores a ride and assigns the given requests to it.
func (s *MockStore) AddRide(ride *domain.Ride, requestIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *ride
	s.rides[ride.ID] = &copy
	for i, id := range requestIDs {
		aid := ride.ID + "-a-" + id
		s.assignments[aid] = &domain.RideAssignment{
			ID:        aid,
			RideID:    ride.ID,
			RequestID: id,
			CreatedAt: ride.CreatedAt.Add(time.Duration(i) * time.Millisecond),
		}
	}
}

// SetRequestStatus overwrites a request's status.
func (s *MockStore) SetRequestStatus(id string, status domain.RequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		r.Status = status
	}
}

// Request returns a copy of a stored request, or nil.
func (s *MockStore) Request(id string) *domain.RideRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil
	}
	copy := *r
	return &copy
}

// Ride returns a copy of a stored ride, or nil.
func (s *MockStore) Ride(id string) *domain.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil
	}
	copy := *r
	return &copy
}

// CountRides returns the number of rides.
func (s *MockStore) CountRides() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rides)
}

// CountAssignments returns the number of assignments.
func (s *MockStore) CountAssignments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assignments)
}

// CountPayments returns the number of payments.
func (s *MockStore) CountPayments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// OccupiedSeats sums the seats assigned to a ride.
func (s *MockStore) OccupiedSeats(rideID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, a := range s.assignments {
		if a.RideID == rideID {
			total += s.requests[a.RequestID].SeatsRequired
		}
	}
	return total
}

func sortRequests(out []*domain.RideRequest) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository implements repository.RideRequestRepository.
type MockRequestRepository struct{ s *MockStore }

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.requests[req.ID]; ok {
		return repository.ErrDuplicate
	}
	copy := *req
	m.s.requests[req.ID] = &copy
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	if r := m.s.Request(id); r != nil {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockRequestRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.RideRequest, error) {
	var out []*domain.RideRequest
	for _, id := range ids {
		if r := m.s.Request(id); r != nil {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out, nil
}

func (m *MockRequestRepository) ListPending(ctx context.Context) ([]*domain.RideRequest, error) {
	if m.s.ListPendingError != nil {
		return nil, m.s.ListPendingError
	}
	m.s.mu.Lock()
	var out []*domain.RideRequest
	for _, r := range m.s.requests {
		if r.Status == domain.RequestStatusPending {
			copy := *r
			out = append(out, &copy)
		}
	}
	m.s.mu.Unlock()
	sortRequests(out)
	return out, nil
}

func (m *MockRequestRepository) ListByRider(ctx context.Context, riderID string, limit int) ([]*domain.RideRequest, error) {
	m.s.mu.Lock()
	var out []*domain.RideRequest
	for _, r := range m.s.requests {
		if r.RiderID == riderID {
			copy := *r
			out = append(out, &copy)
		}
	}
	m.s.mu.Unlock()
	sortRequests(out)
	// Newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRequestRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.RideRequest, error) {
	m.s.mu.Lock()
	var links []*domain.RideAssignment
	for _, a := range m.s.assignments {
		if a.RideID == rideID {
			links = append(links, a)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].RequestID < links[j].RequestID
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	out := make([]*domain.RideRequest, 0, len(links))
	for _, a := range links {
		if r, ok := m.s.requests[a.RequestID]; ok {
			copy := *r
			out = append(out, &copy)
		}
	}
	m.s.mu.Unlock()
	return out, nil
}

func (m *MockRequestRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RequestStatus) error {
	atomic.AddInt32(&m.s.TransitionCallCount, 1)
	if m.s.BeforeTransition != nil {
		m.s.BeforeTransition(id)
	}
	if m.s.TransitionError != nil {
		return m.s.TransitionError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok || r.Status != from {
		return repository.ErrConflict
	}
	r.Status = to
	return nil
}

// ──────────────────────────────────────────────
// MOCK RIDE & ASSIGNMENT REPOSITORIES
// ──────────────────────────────────────────────

// MockRideRepository implements repository.RideRepository.
type MockRideRepository struct{ s *MockStore }

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.rides {
		if r.DriverID == ride.DriverID && r.Status == domain.RideStatusOngoing {
			return repository.ErrDuplicate
		}
	}
	copy := *ride
	m.s.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	if r := m.s.Ride(id); r != nil {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) GetOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.rides {
		if r.DriverID == driverID && r.Status == domain.RideStatusOngoing {
			copy := *r
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockRideRepository) LockOngoingByDriverID(ctx context.Context, driverID string) (*domain.Ride, error) {
	return m.GetOngoingByDriverID(ctx, driverID)
}

func (m *MockRideRepository) AddFare(ctx context.Context, id string, amount float64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rides[id]
	if !ok || r.Status != domain.RideStatusOngoing {
		return repository.ErrConflict
	}
	r.FinalFare += amount
	return nil
}

func (m *MockRideRepository) Complete(ctx context.Context, id string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.rides[id]
	if !ok || r.Status != domain.RideStatusOngoing {
		return repository.ErrConflict
	}
	r.Status = domain.RideStatusCompleted
	r.CompletedAt = at
	return nil
}

func (m *MockRideRepository) SumCompletedFares(ctx context.Context, driverID string, from, to time.Time) (float64, int, error) {
	if m.s.SumFaresError != nil {
		return 0, 0, m.s.SumFaresError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var total float64
	var count int
	for _, r := range m.s.rides {
		if r.DriverID != driverID || r.Status != domain.RideStatusCompleted {
			continue
		}
		if !from.IsZero() && r.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !r.CreatedAt.Before(to) {
			continue
		}
		total += r.FinalFare
		count++
	}
	return total, count, nil
}

// MockAssignmentRepository implements repository.AssignmentRepository.
type MockAssignmentRepository struct{ s *MockStore }

func (m *MockAssignmentRepository) Create(ctx context.Context, a *domain.RideAssignment) error {
	if m.s.CreateAssignmentError != nil {
		return m.s.CreateAssignmentError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.assignments {
		if existing.RequestID == a.RequestID {
			return repository.ErrDuplicate
		}
	}
	copy := *a
	m.s.assignments[a.ID] = &copy
	return nil
}

func (m *MockAssignmentRepository) GetByRequestID(ctx context.Context, requestID string) (*domain.RideAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.assignments {
		if a.RequestID == requestID {
			copy := *a
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockAssignmentRepository) ListByRideID(ctx context.Context, rideID string) ([]*domain.RideAssignment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.RideAssignment
	for _, a := range m.s.assignments {
		if a.RideID == rideID {
			copy := *a
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository implements repository.PaymentRepository.
type MockPaymentRepository struct{ s *MockStore }

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.s.CreatePaymentError != nil {
		return m.s.CreatePaymentError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.IdempotencyKey == payment.IdempotencyKey {
			return repository.ErrDuplicate
		}
	}
	copy := *payment
	m.s.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range m.s.payments {
		if p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil // Not found, but not an error for idempotency check
}

func (m *MockPaymentRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.s.payments {
		if p.RiderID == riderID {
			copy := *p
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.After(out[j].PaymentDate) })
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORIES
// ──────────────────────────────────────────────

// MockRiderRepository implements repository.RiderRepository.
type MockRiderRepository struct{ s *MockStore }

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.riders[rider.ID]; ok {
		return repository.ErrDuplicate
	}
	copy := *rider
	m.s.riders[rider.ID] = &copy
	return nil
}

func (m *MockRiderRepository) GetByID(ctx context.Context, id string) (*domain.Rider, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.riders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// MockDriverRepository implements repository.DriverRepository.
type MockDriverRepository struct{ s *MockStore }

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.drivers[driver.ID]; ok {
		return repository.ErrDuplicate
	}
	copy := *driver
	m.s.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	d, ok := m.s.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

// MockVehicleRepository implements repository.VehicleRepository.
type MockVehicleRepository struct{ s *MockStore }

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, v := range m.s.vehicles {
		if v.PlateNumber == vehicle.PlateNumber {
			return repository.ErrDuplicate
		}
	}
	copy := *vehicle
	m.s.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) GetByDriverID(ctx context.Context, driverID string) (*domain.Vehicle, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, v := range m.s.vehicles {
		if v.DriverID == driverID {
			copy := *v
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string
	seq   int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[driverID]; held {
		return "", nil
	}
	m.seq++
	token := driverID + "#" + strconv.Itoa(m.seq)
	m.locks[driverID] = token
	return token, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] == token {
		delete(m.locks, driverID)
	}
	return nil
}

// Hold takes the driver's lock on behalf of another caller.
func (m *MockLockStore) Hold(driverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[driverID] = "held-elsewhere"
}

// IsLocked checks if a driver is locked (for test assertions).
func (m *MockLockStore) IsLocked(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[driverID]
	return ok
}

// ──────────────────────────────────────────────
// GEO & EVENT STUBS
// ──────────────────────────────────────────────

// StubGeocoder answers from a fixed table.
type StubGeocoder struct {
	Places    map[string]geo.Point
	Err       error
	CallCount int32
}

func (g *StubGeocoder) Geocode(ctx context.Context, address string) (geo.Place, error) {
	atomic.AddInt32(&g.CallCount, 1)
	if g.Err != nil {
		return geo.Place{}, g.Err
	}
	p, ok := g.Places[address]
	if !ok {
		return geo.Place{}, &geo.ExternalServiceError{Service: "stub", Err: geo.ErrNoResult}
	}
	return geo.Place{Point: p}, nil
}

// StubRouter returns a fixed distance.
type StubRouter struct {
	DistanceKm float64
	Err        error
	CallCount  int32
}

func (r *StubRouter) Route(ctx context.Context, from, to geo.Point) (geo.Route, error) {
	atomic.AddInt32(&r.CallCount, 1)
	if r.Err != nil {
		return geo.Route{}, r.Err
	}
	return geo.Route{DistanceKm: r.DistanceKm, DurationSeconds: r.DistanceKm * 90}, nil
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, batch ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, batch...)
	return p.Err
}

func (p *RecordingPublisher) Close() error { return nil }

// Events returns the events of the given type.
func (p *RecordingPublisher) Events(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// MockPSP is a mock payment service provider.
type MockPSP struct {
	FailError       error
	ChargeCallCount int32

	mu     sync.Mutex
	voided []string
}

func (m *MockPSP) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	if m.FailError != nil {
		return "", m.FailError
	}
	return "psp-" + reference, nil
}

func (m *MockPSP) Void(ctx context.Context, providerRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voided = append(m.voided, providerRef)
	return nil
}

// Voided returns the provider references cancelled so far.
func (m *MockPSP) Voided() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.voided...)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBDown  = errors.New("mock: connection refused")
	ErrMockTimeout = errors.New("mock: operation timeout")
)
