package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/queue"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/repository/memory"
)

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (r *recorder) Publish(_ context.Context, ev queue.ReservationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store   *memory.Store
	events  *recorder
	res     *ReservationService
	seats   *SeatService
	intern  model.Session
	other   model.Session
	admin   model.Session
	a1, b2  uint64
	blocked uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	f := &fixture{store: store, events: &recorder{}}

	mkUser := func(name, email string, role model.Role) model.Session {
		id, err := store.Users().Create(ctx, name, email, "password", role, bcrypt.MinCost)
		require.NoError(t, err)
		return model.Session{UserID: id, Role: role}
	}
	f.intern = mkUser("Intern", "intern@example.com", model.RoleIntern)
	f.other = mkUser("Other Intern", "other@example.com", model.RoleIntern)
	f.admin = mkUser("Admin", "admin@example.com", model.RoleAdmin)

	mkSeat := func(number, row, area string, status model.SeatStatus) uint64 {
		s := &model.Seat{SeatNumber: number, Row: row, Location: model.DefaultSeatLocation, Area: area, Status: status}
		require.NoError(t, store.Seats().Create(ctx, s))
		return s.ID
	}
	f.a1 = mkSeat("A1", "A", "Floor 1", model.SeatAvailable)
	f.b2 = mkSeat("B2", "B", "Floor 2", model.SeatAvailable)
	f.blocked = mkSeat("C3", "C", "Floor 2", model.SeatUnavailable)

	clock := func() time.Time { return now }
	f.res = NewReservationService(store.Seats(), store.Reservations(), store.Users(), f.events, validator(), zap.NewNop())
	f.res.Now = clock
	f.seats = NewSeatService(store.Seats(), store.Reservations(), time.UTC, zap.NewNop())
	f.seats.Now = clock
	return f
}

func (f *fixture) book(t *testing.T, sess model.Session, seat uint64, date time.Time, slot string) *model.Reservation {
	t.Helper()
	r, err := f.res.CreateReservation(context.Background(), sess, CreateInput{SeatID: seat, Date: model.FormatDate(date), TimeSlot: slot})
	require.NoError(t, err)
	return r
}

// ---- testify mocks for failure paths ----

type MockSeatStore struct{ mock.Mock }

func (m *MockSeatStore) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seat), args.Error(1)
}

func (m *MockSeatStore) List(ctx context.Context) ([]model.Seat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Seat), args.Error(1)
}

func (m *MockSeatStore) Create(ctx context.Context, s *model.Seat) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSeatStore) Update(ctx context.Context, s *model.Seat) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSeatStore) DeleteIfIdle(ctx context.Context, id uint64, from time.Time) error {
	return m.Called(ctx, id, from).Error(0)
}

type MockReservationStore struct{ mock.Mock }

func (m *MockReservationStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *MockReservationStore) list(args mock.Arguments) ([]model.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reservation), args.Error(1)
}

func (m *MockReservationStore) ListActiveByUserAndDate(ctx context.Context, userID uint64, date time.Time) ([]model.Reservation, error) {
	return m.list(m.Called(ctx, userID, date))
}

func (m *MockReservationStore) ListActiveBySeatAndDate(ctx context.Context, seatID uint64, date time.Time) ([]model.Reservation, error) {
	return m.list(m.Called(ctx, seatID, date))
}

func (m *MockReservationStore) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	return m.list(m.Called(ctx, date))
}

func (m *MockReservationStore) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	return m.list(m.Called(ctx, f))
}

func (m *MockReservationStore) CreateActive(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReservationStore) Reschedule(ctx context.Context, r *model.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReservationStore) Cancel(ctx context.Context, id uint64, at time.Time) (*model.Reservation, bool, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockReservationStore) Summary(ctx context.Context, today time.Time) (repository.ReservationSummary, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(repository.ReservationSummary), args.Error(1)
}
