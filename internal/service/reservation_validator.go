package service

import (
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// ReservationValidator makes the booking decisions.  It does no I/O: the
// caller supplies the seat, the relevant Active reservations and the
// current time.  Each method returns nil or a *Rejection.
type ReservationValidator struct {
	// Location is the business timezone that defines "today" and slot
	// start instants.
	Location *time.Location
	// LeadTime is the minimum notice for a booking made on the same day.
	LeadTime time.Duration
}

// NewReservationValidator returns a validator for loc.  A nil loc means UTC.
func NewReservationValidator(loc *time.Location, leadTime time.Duration) ReservationValidator {
	if loc == nil {
		loc = time.UTC
	}
	return ReservationValidator{Location: loc, LeadTime: leadTime}
}

func (v ReservationValidator) loc() *time.Location {
	if v.Location == nil {
		return time.UTC
	}
	return v.Location
}

// ValidateTiming rejects dates before today and, for today, slots that
// start within the lead time.  A full-day booking starts at 09:00.  Only
// the calendar fields of date are used; its clock and zone are ignored.
func (v ReservationValidator) ValidateTiming(date time.Time, slot model.TimeSlot, now time.Time) error {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	today := model.DateOf(now, v.loc())
	if d.Before(today) {
		return reject(KindPastDate, MsgPastDate)
	}
	if d.Equal(today) {
		start := slot.StartAt(d, v.loc())
		if !start.After(now.Add(v.LeadTime)) {
			return reject(KindTooSoon, MsgTooSoon)
		}
	}
	return nil
}

// ValidateNoDoubleBookingForUser rejects a second Active reservation by
// the same user on the same date.
func (v ReservationValidator) ValidateNoDoubleBookingForUser(userID uint64, date time.Time, existing []model.Reservation) error {
	for i := range existing {
		r := &existing[i]
		if r.UserID == userID && r.IsActive() && model.SameDate(r.Date, date) {
			return reject(KindOneSeatPerDay, MsgOneSeatPerDay)
		}
	}
	return nil
}

// ValidateSeatAvailability checks the seat exists, is administratively
// Available and has no Active reservation overlapping slot on date.
func (v ReservationValidator) ValidateSeatAvailability(seat *model.Seat, date time.Time, slot model.TimeSlot, seatReservations []model.Reservation) error {
	if seat == nil {
		return reject(KindSeatNotFound, MsgSeatNotFound)
	}
	if seat.Status != model.SeatAvailable {
		return reject(KindSeatUnavailable, MsgSeatUnavailable)
	}
	for i := range seatReservations {
		r := &seatReservations[i]
		if r.SeatID == seat.ID && r.IsActive() && r.Overlaps(date, slot) {
			return reject(KindSlotConflict, MsgSlotConflict)
		}
	}
	return nil
}

// ValidateModification guards changes to an existing
// reservation: it must exist, belong to the caller unless the caller is
// an admin, and be dated after now.  A reservation dated today is
// already past because its date is taken as midnight.
func (v ReservationValidator) ValidateModification(existing *model.Reservation, sess model.Session, now time.Time) error {
	if existing == nil {
		return reject(KindNotFound, MsgNotFound)
	}
	if err := v.ValidateOwnership(existing, sess); err != nil {
		return err
	}
	if !model.Midnight(existing.Date, v.loc()).After(now) {
		return reject(KindPastReservation, MsgPastReservation)
	}
	return nil
}

// ValidateOwnership allows the owner and admins.
func (v ReservationValidator) ValidateOwnership(existing *model.Reservation, sess model.Session) error {
	if existing.UserID != sess.UserID && !sess.IsAdmin() {
		return reject(KindForbidden, MsgForbidden)
	}
	return nil
}

// ValidateCreate runs the create checks in order (timing, seat, user)
// and stops at the first rejection.
func (v ReservationValidator) ValidateCreate(userID uint64, seat *model.Seat, date time.Time, slot model.TimeSlot,
	seatReservations, userReservations []model.Reservation, now time.Time) error {
	if err := v.ValidateTiming(date, slot, now); err != nil {
		return err
	}
	if err := v.ValidateSeatAvailability(seat, date, slot, seatReservations); err != nil {
		return err
	}
	return v.ValidateNoDoubleBookingForUser(userID, date, userReservations)
}
