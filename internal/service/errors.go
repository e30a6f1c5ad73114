// Package service holds the reservation rules and the operations built on
// them.  Every operation takes the caller's model.Session explicitly and
// reports refusals as *Rejection values.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a rejection.  Handlers map kinds onto HTTP statuses.
type Kind string

const (
	KindInvalidInput    Kind = "InvalidInput"
	KindPastDate        Kind = "PastDate"
	KindTooSoon         Kind = "TooSoon"
	KindSeatNotFound    Kind = "SeatNotFound"
	KindSeatUnavailable Kind = "SeatUnavailable"
	KindSlotConflict    Kind = "SlotConflict"
	KindOneSeatPerDay   Kind = "OneSeatPerDay"
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindPastReservation Kind = "PastReservation"
	KindConflict        Kind = "Conflict"
	KindStorageError    Kind = "StorageError"
)

// Messages shown to clients.
const (
	MsgPastDate        = "Cannot book past dates"
	MsgTooSoon         = "Seats must be reserved at least 1 hour in advance for today"
	MsgSeatNotFound    = "Seat not found"
	MsgSeatUnavailable = "Seat not available"
	MsgSlotConflict    = "Seat is already booked for this time slot"
	MsgOneSeatPerDay   = "An intern can only reserve one seat per day"
	MsgNotFound        = "Reservation not found"
	MsgForbidden       = "Access denied"
	MsgAdminOnly       = "Access denied. Admin only."
	MsgPastReservation = "Cannot modify past reservations"
	MsgUserNotFound    = "User not found"
	MsgStorage         = "internal storage error"
)

// Rejection is the error returned for every refused operation.
type Rejection struct {
	Kind   Kind
	Reason string
	cause  error
}

func (r *Rejection) Error() string {
	if r.cause != nil {
		return fmt.Sprintf("%s: %s: %v", r.Kind, r.Reason, r.cause)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
}

func (r *Rejection) Unwrap() error { return r.cause }

func reject(kind Kind, reason string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason}
}

func invalid(format string, args ...any) *Rejection {
	return reject(KindInvalidInput, fmt.Sprintf(format, args...))
}

// storageErr wraps an unexpected store failure.  The reason stays generic;
// the cause is kept for logging.
func storageErr(err error) *Rejection {
	return &Rejection{Kind: KindStorageError, Reason: MsgStorage, cause: err}
}

// KindOf returns the kind of a *Rejection anywhere in err's chain, or ""
// for nil and foreign errors.
func KindOf(err error) Kind {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind
	}
	return ""
}
