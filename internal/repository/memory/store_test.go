package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

var day = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*Store, uint64) {
	t.Helper()
	s := New()
	seat := &model.Seat{SeatNumber: "A1", Row: "A", Location: "Main Hall", Area: "Floor 1", Status: model.SeatAvailable}
	require.NoError(t, s.Seats().Create(context.Background(), seat))
	return s, seat.ID
}

func TestCreateActiveClaimsFullDay(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	res := s.Reservations()

	full := &model.Reservation{UserID: 1, SeatID: seatID, Date: day, TimeSlot: model.FullDay}
	require.NoError(t, res.CreateActive(ctx, full))
	assert.Equal(t, "A1", full.SeatNumber)

	partial := &model.Reservation{UserID: 2, SeatID: seatID, Date: day, TimeSlot: "15:00-16:00"}
	assert.ErrorIs(t, res.CreateActive(ctx, partial), repository.ErrSlotTaken)
	assert.Zero(t, partial.ID)

	// after cancelling, the slots are free again
	_, changed, err := res.Cancel(ctx, full.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, res.CreateActive(ctx, partial))
}

func TestCreateActiveUserDay(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	other := &model.Seat{SeatNumber: "B2", Row: "B", Status: model.SeatAvailable}
	require.NoError(t, s.Seats().Create(ctx, other))

	require.NoError(t, s.Reservations().CreateActive(ctx,
		&model.Reservation{UserID: 1, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"}))
	err := s.Reservations().CreateActive(ctx,
		&model.Reservation{UserID: 1, SeatID: other.ID, Date: day, TimeSlot: "11:00-12:00"})
	assert.ErrorIs(t, err, repository.ErrUserDayTaken)
}

func TestCreateActiveSingleWinner(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()

	const n = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			err := s.Reservations().CreateActive(ctx,
				&model.Reservation{UserID: user, SeatID: seatID, Date: day, TimeSlot: "10:00-11:00"})
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, repository.ErrSlotTaken)
		}(uint64(i + 1))
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRescheduleKeepsOriginalOnConflict(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	res := s.Reservations()

	mine := &model.Reservation{UserID: 1, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"}
	require.NoError(t, res.CreateActive(ctx, mine))
	require.NoError(t, res.CreateActive(ctx,
		&model.Reservation{UserID: 2, SeatID: seatID, Date: day, TimeSlot: "10:00-11:00"}))

	move := &model.Reservation{ID: mine.ID, UserID: 1, SeatID: seatID, Date: day, TimeSlot: "10:00-11:00"}
	assert.ErrorIs(t, res.Reschedule(ctx, move), repository.ErrSlotTaken)

	// the original slot is still held
	err := res.CreateActive(ctx, &model.Reservation{UserID: 3, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"})
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	move.TimeSlot = "11:00-12:00"
	require.NoError(t, res.Reschedule(ctx, move))
	assert.Equal(t, model.TimeSlot("11:00-12:00"), move.TimeSlot)
	require.NoError(t, res.CreateActive(ctx,
		&model.Reservation{UserID: 3, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"}))
}

func TestCancelIsIdempotent(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	r := &model.Reservation{UserID: 1, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"}
	require.NoError(t, s.Reservations().CreateActive(ctx, r))

	first, changed, err := s.Reservations().Cancel(ctx, r.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	second, changed, err := s.Reservations().Cancel(ctx, r.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first.CancelledAt, second.CancelledAt)

	_, _, err = s.Reservations().Cancel(ctx, 999, time.Now())
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestDeleteIfIdle(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Reservations().CreateActive(ctx,
		&model.Reservation{UserID: 1, SeatID: seatID, Date: day, TimeSlot: "09:00-10:00"}))

	assert.ErrorIs(t, s.Seats().DeleteIfIdle(ctx, seatID, day), repository.ErrConflict)
	require.NoError(t, s.Seats().DeleteIfIdle(ctx, seatID, day.AddDate(0, 0, 1)))
	assert.ErrorIs(t, s.Seats().DeleteIfIdle(ctx, seatID, day), repository.ErrSeatNotFound)
}

func TestListFilters(t *testing.T) {
	s, seatID := seed(t)
	ctx := context.Background()
	uid, err := s.Users().Create(ctx, "Ada Lovelace", "Ada@Example.com", "pw", model.RoleIntern, bcrypt.MinCost)
	require.NoError(t, err)

	for i, d := range []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, -1)} {
		r := &model.Reservation{UserID: uid, SeatID: seatID, Date: d, TimeSlot: model.HourlySlots[i]}
		require.NoError(t, s.Reservations().CreateActive(ctx, r))
	}

	all, err := s.Reservations().List(ctx, repository.ReservationFilter{UserID: uid})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.After(all[1].Date))

	from := day
	upcoming, err := s.Reservations().List(ctx, repository.ReservationFilter{FromDate: &from, Ascending: true})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, day, upcoming[0].Date)

	found, err := s.Reservations().List(ctx, repository.ReservationFilter{Query: "lovelace"})
	require.NoError(t, err)
	assert.Len(t, found, 3)
	assert.Equal(t, "ada@example.com", found[0].UserEmail)
}

func TestTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	tokens := s.Tokens()

	require.NoError(t, tokens.StoreRefresh(ctx, 1, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, tokens.StoreRefresh(ctx, 1, "h2", time.Now().Add(-time.Hour)))

	uid, err := tokens.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), uid)
	_, err = tokens.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, repository.ErrInvalidRefresh)

	n, err := tokens.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, tokens.RevokeAllForUser(ctx, 1))
	_, err = tokens.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrInvalidRefresh)
}
