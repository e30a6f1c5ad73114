package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/model"
)

func TestSeatListDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, f.intern, f.a1, tomorrow, "09:00-10:00")

	plain, err := f.seats.List(ctx, SeatFilter{})
	require.NoError(t, err)
	require.Len(t, plain, 3)
	assert.Equal(t, "A1", plain[0].SeatNumber)
	assert.Equal(t, model.SeatAvailable, plain[0].Status)

	byDate, err := f.seats.List(ctx, SeatFilter{Date: model.FormatDate(tomorrow)})
	require.NoError(t, err)
	assert.Equal(t, model.SeatUnavailable, statusOf(byDate, "A1"))
	assert.Equal(t, model.SeatAvailable, statusOf(byDate, "B2"))
	assert.Equal(t, model.SeatUnavailable, statusOf(byDate, "C3"))

	bySlot, err := f.seats.List(ctx, SeatFilter{Date: model.FormatDate(tomorrow), TimeSlot: "10:00-11:00"})
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, statusOf(bySlot, "A1"))

	_, err = f.seats.List(ctx, SeatFilter{Date: "2026-13-01"})
	assertKind(t, KindInvalidInput, err)
}

func TestSeatAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, f.intern, f.b2, tomorrow, model.FullDayDisplay)

	got, err := f.seats.Availability(ctx, model.FormatDate(tomorrow), "11:00-12:00")
	require.NoError(t, err)
	require.Len(t, got, 2, "unavailable seats are left out")
	assert.Equal(t, "A1", got[0].SeatNumber)
	assert.True(t, got[0].IsAvailable)
	assert.Equal(t, "B2", got[1].SeatNumber)
	assert.False(t, got[1].IsAvailable)
}

func TestSeatAdminCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.seats.Create(ctx, f.intern, SeatInput{SeatNumber: "D4", Row: "D"})
	assertKind(t, KindForbidden, err)

	seat, err := f.seats.Create(ctx, f.admin, SeatInput{SeatNumber: "D4", Row: "D"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSeatLocation, seat.Location)
	assert.Equal(t, model.DefaultSeatArea, seat.Area)
	assert.Equal(t, model.SeatAvailable, seat.Status)

	_, err = f.seats.Create(ctx, f.admin, SeatInput{SeatNumber: "A1", Row: "A"})
	assertKind(t, KindConflict, err)
	_, err = f.seats.Create(ctx, f.admin, SeatInput{SeatNumber: "E5"})
	assertKind(t, KindInvalidInput, err)
	_, err = f.seats.Create(ctx, f.admin, SeatInput{SeatNumber: "E5", Row: "E", Status: "Broken"})
	assertKind(t, KindInvalidInput, err)

	updated, err := f.seats.Update(ctx, f.admin, seat.ID, SeatInput{Area: "Floor 3", Status: "Unavailable"})
	require.NoError(t, err)
	assert.Equal(t, "D4", updated.SeatNumber)
	assert.Equal(t, "Floor 3", updated.Area)
	assert.Equal(t, model.SeatUnavailable, updated.Status)

	_, err = f.seats.Update(ctx, f.admin, seat.ID, SeatInput{SeatNumber: "B2"})
	assertKind(t, KindConflict, err)
	_, err = f.seats.Update(ctx, f.admin, 999, SeatInput{Area: "x"})
	assertKind(t, KindSeatNotFound, err)

	require.NoError(t, f.seats.Delete(ctx, f.admin, seat.ID))
	_, err = f.seats.Get(ctx, seat.ID)
	assertKind(t, KindSeatNotFound, err)
}

func TestSeatDeleteBlockedByUpcomingReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, f.intern, f.a1, tomorrow, "09:00-10:00")

	err := f.seats.Delete(ctx, f.admin, f.a1)
	assertKind(t, KindConflict, err)

	_, err = f.res.CancelReservation(ctx, f.intern, r.ID)
	require.NoError(t, err)
	require.NoError(t, f.seats.Delete(ctx, f.admin, f.a1))

	assertKind(t, KindSeatNotFound, f.seats.Delete(ctx, f.admin, f.a1))
	assertKind(t, KindForbidden, f.seats.Delete(ctx, f.intern, f.b2))
}

func statusOf(seats []model.Seat, number string) model.SeatStatus {
	for _, s := range seats {
		if s.SeatNumber == number {
			return s.Status
		}
	}
	return ""
}
