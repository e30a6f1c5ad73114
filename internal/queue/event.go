// Package queue defines the reservation audit events and the RabbitMQ
// publisher and consumer that carry them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// Routing keys on the reservations topic exchange.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationModified  = "reservation.modified"
)

// AuditBinding matches every reservation event.
const AuditBinding = "reservation.*"

// ReservationEvent is published after a reservation write commits.  It is
// self-contained so the audit consumer never has to query the database.
type ReservationEvent struct {
	EventID       string `json:"event_id"`
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	SeatID        uint64 `json:"seat_id"`
	SeatNumber    string `json:"seat_number"`
	Date          string `json:"date"`
	TimeSlot      string `json:"time_slot"`
	Status        string `json:"status"`
	ActorID       uint64 `json:"actor_id"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent snapshots r for the given event type.  actorID is
// the user who performed the change, which differs from r.UserID when an
// admin acts on someone else's booking.
func NewReservationEvent(typ string, r *model.Reservation, actorID uint64, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		UserID:        r.UserID,
		SeatID:        r.SeatID,
		SeatNumber:    r.SeatNumber,
		Date:          model.FormatDate(r.Date),
		TimeSlot:      string(r.TimeSlot),
		Status:        string(r.Status),
		ActorID:       actorID,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
