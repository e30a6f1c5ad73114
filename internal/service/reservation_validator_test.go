package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/seat-reservation/internal/model"
)

var (
	// 08:00 UTC on 10 March 2026
	now      = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	today    = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow = today.AddDate(0, 0, 1)
)

func validator() ReservationValidator { return NewReservationValidator(time.UTC, time.Hour) }

func assertKind(t *testing.T, want Kind, err error) {
	t.Helper()
	if want == "" {
		assert.NoError(t, err)
		return
	}
	assert.Equal(t, want, KindOf(err), "err = %v", err)
}

func TestValidateTiming(t *testing.T) {
	v := validator()
	tests := []struct {
		name string
		date time.Time
		slot model.TimeSlot
		now  time.Time
		want Kind
	}{
		{"yesterday", today.AddDate(0, 0, -1), "15:00-16:00", now, KindPastDate},
		{"yesterday full day", today.AddDate(0, 0, -1), model.FullDay, now, KindPastDate},
		{"tomorrow early slot", tomorrow, "09:00-10:00", now, ""},
		{"today exactly one hour ahead", today, "09:00-10:00", now, KindTooSoon},
		{"today 61 minutes ahead", today, "09:00-10:00", now.Add(-time.Minute), ""},
		{"today within the hour", today, "09:00-10:00", now.Add(30 * time.Minute), KindTooSoon},
		{"today slot already started", today, "09:00-10:00", now.Add(2 * time.Hour), KindTooSoon},
		{"today later slot", today, "10:00-11:00", now, ""},
		{"today full day starts at nine", today, model.FullDay, now, KindTooSoon},
		{"today full day early enough", today, model.FullDay, now.Add(-2 * time.Hour), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, tt.want, v.ValidateTiming(tt.date, tt.slot, tt.now))
		})
	}
}

func TestValidateTimingUsesBusinessTimezone(t *testing.T) {
	// 23:30 UTC on the 9th is already 03:30 on the 10th in UTC+4.
	loc := time.FixedZone("office", 4*3600)
	v := NewReservationValidator(loc, time.Hour)
	instant := time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)

	assertKind(t, KindPastDate, v.ValidateTiming(today.AddDate(0, 0, -1), "15:00-16:00", instant))
	assertKind(t, "", v.ValidateTiming(today, "09:00-10:00", instant))
}

func TestValidateTimingIgnoresClockAndZoneOfDate(t *testing.T) {
	east := time.FixedZone("east", 4*3600)
	v := NewReservationValidator(east, time.Hour)
	eastNow := time.Date(2026, 3, 10, 8, 0, 0, 0, east)
	assertKind(t, "", v.ValidateTiming(time.Date(2026, 3, 10, 0, 0, 0, 0, east), "15:00-16:00", eastNow))
	assertKind(t, KindTooSoon, v.ValidateTiming(time.Date(2026, 3, 10, 23, 0, 0, 0, east), "09:00-10:00", eastNow))

	west := time.FixedZone("west", -5*3600)
	v = NewReservationValidator(west, time.Hour)
	westNow := time.Date(2026, 3, 10, 8, 0, 0, 0, west)
	assertKind(t, KindPastDate, v.ValidateTiming(time.Date(2026, 3, 9, 21, 0, 0, 0, west), "15:00-16:00", westNow))
	// 19:00 west is already the 11th in UTC; the calendar day is still the 10th.
	assertKind(t, KindTooSoon, v.ValidateTiming(time.Date(2026, 3, 10, 19, 0, 0, 0, west), "09:00-10:00", westNow))
	assertKind(t, "", v.ValidateTiming(time.Date(2026, 3, 10, 19, 0, 0, 0, west), "10:00-11:00", westNow))
}

func TestValidateNoDoubleBookingForUser(t *testing.T) {
	v := validator()
	existing := []model.Reservation{
		{ID: 1, UserID: 7, SeatID: 1, Date: tomorrow, TimeSlot: "09:00-10:00", Status: model.ReservationActive},
		{ID: 2, UserID: 8, SeatID: 2, Date: tomorrow.AddDate(0, 0, 1), TimeSlot: "09:00-10:00", Status: model.ReservationCancelled},
	}
	assertKind(t, KindOneSeatPerDay, v.ValidateNoDoubleBookingForUser(7, tomorrow, existing))
	assertKind(t, "", v.ValidateNoDoubleBookingForUser(7, tomorrow.AddDate(0, 0, 1), existing))
	assertKind(t, "", v.ValidateNoDoubleBookingForUser(8, tomorrow.AddDate(0, 0, 1), existing))
	assertKind(t, "", v.ValidateNoDoubleBookingForUser(9, tomorrow, existing))
}

func TestValidateSeatAvailability(t *testing.T) {
	v := validator()
	seat := &model.Seat{ID: 1, SeatNumber: "A1", Status: model.SeatAvailable}
	partial := []model.Reservation{
		{ID: 1, UserID: 7, SeatID: 1, Date: tomorrow, TimeSlot: "13:00-14:00", Status: model.ReservationActive},
	}
	full := []model.Reservation{
		{ID: 2, UserID: 7, SeatID: 1, Date: tomorrow, TimeSlot: model.FullDay, Status: model.ReservationActive},
	}
	cancelled := []model.Reservation{
		{ID: 3, UserID: 7, SeatID: 1, Date: tomorrow, TimeSlot: model.FullDay, Status: model.ReservationCancelled},
	}

	assertKind(t, KindSeatNotFound, v.ValidateSeatAvailability(nil, tomorrow, "09:00-10:00", nil))
	assertKind(t, KindSeatUnavailable, v.ValidateSeatAvailability(
		&model.Seat{ID: 1, Status: model.SeatUnavailable}, tomorrow, "09:00-10:00", nil))

	assertKind(t, KindSlotConflict, v.ValidateSeatAvailability(seat, tomorrow, "13:00-14:00", partial))
	assertKind(t, "", v.ValidateSeatAvailability(seat, tomorrow, "14:00-15:00", partial))
	assertKind(t, KindSlotConflict, v.ValidateSeatAvailability(seat, tomorrow, model.FullDay, partial))
	assertKind(t, KindSlotConflict, v.ValidateSeatAvailability(seat, tomorrow, "17:00-18:00", full))
	assertKind(t, "", v.ValidateSeatAvailability(seat, tomorrow.AddDate(0, 0, 1), "17:00-18:00", full))
	assertKind(t, "", v.ValidateSeatAvailability(seat, tomorrow, model.FullDay, cancelled))
}

func TestValidateModification(t *testing.T) {
	v := validator()
	owner := model.Session{UserID: 7, Role: model.RoleIntern}
	stranger := model.Session{UserID: 8, Role: model.RoleIntern}
	admin := model.Session{UserID: 1, Role: model.RoleAdmin}

	future := &model.Reservation{ID: 1, UserID: 7, Date: tomorrow, TimeSlot: "09:00-10:00", Status: model.ReservationActive}
	sameDay := &model.Reservation{ID: 2, UserID: 7, Date: today, TimeSlot: "17:00-18:00", Status: model.ReservationActive}

	assertKind(t, KindNotFound, v.ValidateModification(nil, owner, now))
	assertKind(t, KindForbidden, v.ValidateModification(future, stranger, now))
	assertKind(t, "", v.ValidateModification(future, owner, now))
	assertKind(t, "", v.ValidateModification(future, admin, now))
	assertKind(t, KindPastReservation, v.ValidateModification(sameDay, owner, now))
}

func TestValidateCreateOrder(t *testing.T) {
	v := validator()
	mine := []model.Reservation{
		{ID: 1, UserID: 7, SeatID: 2, Date: tomorrow, TimeSlot: "09:00-10:00", Status: model.ReservationActive},
	}

	// timing is checked before the seat
	assertKind(t, KindPastDate, v.ValidateCreate(7, nil, today.AddDate(0, 0, -1), "09:00-10:00", nil, mine, now))
	// the seat is checked before the user's day
	assertKind(t, KindSeatNotFound, v.ValidateCreate(7, nil, tomorrow, "10:00-11:00", nil, mine, now))
	seat := &model.Seat{ID: 3, Status: model.SeatAvailable}
	assertKind(t, KindOneSeatPerDay, v.ValidateCreate(7, seat, tomorrow, "10:00-11:00", nil, mine, now))
	assertKind(t, "", v.ValidateCreate(8, seat, tomorrow, "10:00-11:00", nil, mine, now))
}

func TestRejectionError(t *testing.T) {
	err := reject(KindSlotConflict, MsgSlotConflict)
	assert.Equal(t, "SlotConflict: Seat is already booked for this time slot", err.Error())
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}
