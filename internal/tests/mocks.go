package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"fleet/internal/domain"
	"fleet/internal/notify"
	"fleet/internal/repository"
)

// ──────────────────────────────────────────────
// IN-MEMORY STORE
// ──────────────────────────────────────────────

// MemStore is an in-memory implementation of repository.Store. Transact
// serializes on one mutex (the in-memory stand-in for row locks) and rolls
// back to a pre-transaction snapshot when fn fails, so the services under
// test see real transactional semantics.
type MemStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool

	// Counters for verification
	TransactCallCount int32

	// Error injection
	TransactError error
}

type memData struct {
	vehicles    map[string]*domain.Vehicle
	bookings    map[string]*domain.Booking
	usages      map[string]*domain.VehicleUsage
	maintenance map[string]*domain.MaintenanceRecord
	expenses    map[string]*domain.Expense
	users       map[string]*domain.User
	prefs       *domain.NotificationPreferences
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: newMemData()}
}

func newMemData() *memData {
	return &memData{
		vehicles:    make(map[string]*domain.Vehicle),
		bookings:    make(map[string]*domain.Booking),
		usages:      make(map[string]*domain.VehicleUsage),
		maintenance: make(map[string]*domain.MaintenanceRecord),
		expenses:    make(map[string]*domain.Expense),
		users:       make(map[string]*domain.User),
		prefs:       domain.NewNotificationPreferences(),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.vehicles {
		cp := *v
		c.vehicles[k] = &cp
	}
	for k, v := range d.bookings {
		cp := *v
		c.bookings[k] = &cp
	}
	for k, v := range d.usages {
		cp := *v
		c.usages[k] = &cp
	}
	for k, v := range d.maintenance {
		cp := *v
		c.maintenance[k] = &cp
	}
	for k, v := range d.expenses {
		cp := *v
		c.expenses[k] = &cp
	}
	for k, v := range d.users {
		cp := *v
		c.users[k] = &cp
	}
	for role, events := range d.prefs.Flags {
		for event, enabled := range events {
			c.prefs.Set(role, event, enabled)
		}
	}
	return c
}

func (s *MemStore) Vehicles() repository.VehicleRepository       { return &memVehicles{s: s} }
func (s *MemStore) Bookings() repository.BookingRepository       { return &memBookings{s: s} }
func (s *MemStore) Usages() repository.UsageRepository           { return &memUsages{s: s} }
func (s *MemStore) Maintenance() repository.MaintenanceRepository { return &memMaintenance{s: s} }
func (s *MemStore) Expenses() repository.ExpenseRepository       { return &memExpenses{s: s} }
func (s *MemStore) Users() repository.UserRepository             { return &memUsers{s: s} }
func (s *MemStore) Preferences() repository.PreferencesRepository { return &memPreferences{s: s} }

// Transact runs fn under the store mutex against the live data, restoring
// the pre-transaction snapshot if fn fails.
func (s *MemStore) Transact(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return errors.New("nested transaction")
	}
	atomic.AddInt32(&s.TransactCallCount, 1)
	if s.TransactError != nil {
		return s.TransactError
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemStore{data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// acquire takes the store mutex for non-transactional access. Inside a
// transaction the mutex is already held by Transact.
func (s *MemStore) acquire() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Seed helpers. These bypass the repositories so tests can arrange state
// without running the lifecycle.

func (s *MemStore) AddVehicle(v *domain.Vehicle) {
	defer s.acquire()()
	cp := *v
	s.data.vehicles[v.ID] = &cp
}

func (s *MemStore) AddBooking(b *domain.Booking) {
	defer s.acquire()()
	cp := *b
	s.data.bookings[b.ID] = &cp
}

func (s *MemStore) AddUsage(u *domain.VehicleUsage) {
	defer s.acquire()()
	cp := *u
	s.data.usages[u.ID] = &cp
}

func (s *MemStore) AddMaintenance(m *domain.MaintenanceRecord) {
	defer s.acquire()()
	cp := *m
	s.data.maintenance[m.ID] = &cp
}

func (s *MemStore) AddExpense(e *domain.Expense) {
	defer s.acquire()()
	cp := *e
	s.data.expenses[e.ID] = &cp
}

func (s *MemStore) AddUser(u *domain.User) {
	defer s.acquire()()
	cp := *u
	s.data.users[u.ID] = &cp
}

// ──────────────────────────────────────────────
// VEHICLE REPOSITORY
// ──────────────────────────────────────────────

type memVehicles struct{ s *MemStore }

func (r *memVehicles) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	defer r.s.acquire()()
	cp := *vehicle
	r.s.data.vehicles[vehicle.ID] = &cp
	return nil
}

func (r *memVehicles) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	defer r.s.acquire()()
	v, ok := r.s.data.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *memVehicles) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	return r.GetByID(ctx, id)
}

func (r *memVehicles) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	defer r.s.acquire()()
	out := make([]*domain.Vehicle, 0, len(r.s.data.vehicles))
	for _, v := range r.s.data.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVehicles) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	defer r.s.acquire()()
	if _, ok := r.s.data.vehicles[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *vehicle
	r.s.data.vehicles[vehicle.ID] = &cp
	return nil
}

// ──────────────────────────────────────────────
// BOOKING REPOSITORY
// ──────────────────────────────────────────────

type memBookings struct{ s *MemStore }

func (r *memBookings) Create(ctx context.Context, booking *domain.Booking) error {
	defer r.s.acquire()()
	cp := *booking
	r.s.data.bookings[booking.ID] = &cp
	return nil
}

func (r *memBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	defer r.s.acquire()()
	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBookings) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *memBookings) GetByStatus(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	defer r.s.acquire()()
	var out []*domain.Booking
	for _, b := range r.s.data.bookings {
		if b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memBookings) Update(ctx context.Context, booking *domain.Booking) error {
	defer r.s.acquire()()
	if _, ok := r.s.data.bookings[booking.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *booking
	r.s.data.bookings[booking.ID] = &cp
	return nil
}

// ──────────────────────────────────────────────
// USAGE REPOSITORY
// ──────────────────────────────────────────────

type memUsages struct{ s *MemStore }

func (r *memUsages) Create(ctx context.Context, usage *domain.VehicleUsage) error {
	defer r.s.acquire()()
	cp := *usage
	r.s.data.usages[usage.ID] = &cp
	return nil
}

func (r *memUsages) GetByID(ctx context.Context, id string) (*domain.VehicleUsage, error) {
	defer r.s.acquire()()
	u, ok := r.s.data.usages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsages) GetByIDForUpdate(ctx context.Context, id string) (*domain.VehicleUsage, error) {
	return r.GetByID(ctx, id)
}

func (r *memUsages) GetActiveByVehicleID(ctx context.Context, vehicleID string) (*domain.VehicleUsage, error) {
	defer r.s.acquire()()
	for _, u := range r.s.data.usages {
		if u.VehicleID == vehicleID && u.Status == domain.UsageStatusActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsages) GetPendingByBookingID(ctx context.Context, bookingID string) (*domain.VehicleUsage, error) {
	defer r.s.acquire()()
	for _, u := range r.s.data.usages {
		if u.BookingID == bookingID && u.Status == domain.UsageStatusPending {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsages) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.VehicleUsage, error) {
	defer r.s.acquire()()
	var out []*domain.VehicleUsage
	for _, u := range r.s.data.usages {
		if u.VehicleID == vehicleID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *memUsages) Update(ctx context.Context, usage *domain.VehicleUsage) error {
	defer r.s.acquire()()
	if _, ok := r.s.data.usages[usage.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *usage
	r.s.data.usages[usage.ID] = &cp
	return nil
}

// ──────────────────────────────────────────────
// MAINTENANCE REPOSITORY
// ──────────────────────────────────────────────

type memMaintenance struct{ s *MemStore }

func (r *memMaintenance) Create(ctx context.Context, record *domain.MaintenanceRecord) error {
	defer r.s.acquire()()
	cp := *record
	r.s.data.maintenance[record.ID] = &cp
	return nil
}

func (r *memMaintenance) GetByID(ctx context.Context, id string) (*domain.MaintenanceRecord, error) {
	defer r.s.acquire()()
	m, ok := r.s.data.maintenance[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMaintenance) GetByIDForUpdate(ctx context.Context, id string) (*domain.MaintenanceRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *memMaintenance) GetInProgressByVehicleID(ctx context.Context, vehicleID string) (*domain.MaintenanceRecord, error) {
	defer r.s.acquire()()
	for _, m := range r.s.data.maintenance {
		if m.VehicleID == vehicleID && m.Status == domain.MaintenanceStatusInProgress {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMaintenance) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.MaintenanceRecord, error) {
	defer r.s.acquire()()
	var out []*domain.MaintenanceRecord
	for _, m := range r.s.data.maintenance {
		if m.VehicleID == vehicleID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memMaintenance) Update(ctx context.Context, record *domain.MaintenanceRecord) error {
	defer r.s.acquire()()
	if _, ok := r.s.data.maintenance[record.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *record
	r.s.data.maintenance[record.ID] = &cp
	return nil
}

// ──────────────────────────────────────────────
// EXPENSE REPOSITORY
// ──────────────────────────────────────────────

type memExpenses struct{ s *MemStore }

func (r *memExpenses) Create(ctx context.Context, expense *domain.Expense) error {
	defer r.s.acquire()()
	cp := *expense
	r.s.data.expenses[expense.ID] = &cp
	return nil
}

func (r *memExpenses) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	defer r.s.acquire()()
	e, ok := r.s.data.expenses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memExpenses) GetByVehicleID(ctx context.Context, vehicleID string) ([]*domain.Expense, error) {
	defer r.s.acquire()()
	var out []*domain.Expense
	for _, e := range r.s.data.expenses {
		if e.VehicleID == vehicleID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memExpenses) SumByUsageID(ctx context.Context, usageID string) (float64, error) {
	defer r.s.acquire()()
	var total float64
	for _, e := range r.s.data.expenses {
		if e.UsageID == usageID {
			total += e.Amount
		}
	}
	return total, nil
}

func (r *memExpenses) Delete(ctx context.Context, id string) error {
	defer r.s.acquire()()
	if _, ok := r.s.data.expenses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.data.expenses, id)
	return nil
}

// ──────────────────────────────────────────────
// USER REPOSITORY
// ──────────────────────────────────────────────

type memUsers struct{ s *MemStore }

func (r *memUsers) Create(ctx context.Context, user *domain.User) error {
	defer r.s.acquire()()
	cp := *user
	r.s.data.users[user.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.s.acquire()()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByChannelAddress(ctx context.Context, address string) (*domain.User, error) {
	defer r.s.acquire()()
	for _, u := range r.s.data.users {
		if u.ChannelAddress == address {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	return r.GetByRoles(ctx, []domain.Role{role})
}

func (r *memUsers) GetByRoles(ctx context.Context, roles []domain.Role) ([]*domain.User, error) {
	defer r.s.acquire()()
	var out []*domain.User
	for _, u := range r.s.data.users {
		for _, role := range roles {
			if u.Role == role {
				cp := *u
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUsers) GetAll(ctx context.Context) ([]*domain.User, error) {
	defer r.s.acquire()()
	out := make([]*domain.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ──────────────────────────────────────────────
// PREFERENCES REPOSITORY
// ──────────────────────────────────────────────

type memPreferences struct{ s *MemStore }

func (r *memPreferences) Get(ctx context.Context) (*domain.NotificationPreferences, error) {
	defer r.s.acquire()()
	prefs := domain.NewNotificationPreferences()
	for role, events := range r.s.data.prefs.Flags {
		for event, enabled := range events {
			prefs.Set(role, event, enabled)
		}
	}
	return prefs, nil
}

func (r *memPreferences) Set(ctx context.Context, role domain.Role, event string, enabled bool) error {
	defer r.s.acquire()()
	r.s.data.prefs.Set(role, event, enabled)
	return nil
}

// ──────────────────────────────────────────────
// RECORDING NOTIFIER
// ──────────────────────────────────────────────

// DispatchedEvent records one event handed to the notifier.
type DispatchedEvent struct {
	Kind    notify.EventKind
	Payload *notify.Payload
}

// RecordingNotifier satisfies service.Notifier and captures events
// synchronously, so tests can assert what a committed transition emitted.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []DispatchedEvent
}

// NewRecordingNotifier creates a new recording notifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) DispatchAsync(kind notify.EventKind, payload *notify.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, DispatchedEvent{Kind: kind, Payload: payload})
}

// Events returns a copy of the recorded events.
func (n *RecordingNotifier) Events() []DispatchedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]DispatchedEvent, len(n.events))
	copy(out, n.events)
	return out
}

// LastEvent returns the most recent event, or nil.
func (n *RecordingNotifier) LastEvent() *DispatchedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return nil
	}
	e := n.events[len(n.events)-1]
	return &e
}

// ──────────────────────────────────────────────
// MOCK SENDER
// ──────────────────────────────────────────────

// SentMessage records one delivery made through the mock sender.
type SentMessage struct {
	Address string
	Message *notify.Message
}

// MockSender is a mock implementation of notify.Sender.
type MockSender struct {
	mu   sync.Mutex
	sent []SentMessage

	// Error injection: addresses that fail with the given error.
	FailFor map[string]error
}

// NewMockSender creates a new mock sender.
func NewMockSender() *MockSender {
	return &MockSender{FailFor: make(map[string]error)}
}

func (m *MockSender) Send(ctx context.Context, address string, msg *notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[address]; ok {
		return err
	}
	m.sent = append(m.sent, SentMessage{Address: address, Message: msg})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the deliveries made to one address.
func (m *MockSender) SentTo(address string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.sent {
		if s.Address == address {
			out = append(out, s)
		}
	}
	return out
}
