package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  Cancelling
// is a soft delete: the row stays with status Cancelled.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	return s == ReservationActive || s == ReservationCancelled
}

// Reservation records a user's booking of one seat for one time slot (or
// the full day) on a calendar date.
//
// Date always holds midnight UTC of the booked calendar day; see DateOf.
// The Seat* and User* fields are display data joined in by the
// repository and are not persisted on the reservations row.
type Reservation struct {
	ID          uint64            // reservations.id
	UserID      uint64            // reservations.user_id
	SeatID      uint64            // reservations.seat_id
	Date        time.Time         // reservations.date
	TimeSlot    TimeSlot          // reservations.time_slot
	Status      ReservationStatus // reservations.status
	ReservedAt  time.Time         // reservations.reserved_at
	CancelledAt *time.Time        // reservations.cancelled_at (nullable)
	CreatedAt   time.Time         // reservations.created_at
	UpdatedAt   time.Time         // reservations.updated_at

	SeatNumber   string
	SeatRow      string
	SeatLocation string
	SeatArea     string
	UserName     string
	UserEmail    string
	UserRole     Role
}

// IsActive reports whether the reservation currently holds its seat.
func (r *Reservation) IsActive() bool { return r.Status == ReservationActive }

// Overlaps reports whether r occupies the same seat time as slot on date.
func (r *Reservation) Overlaps(date time.Time, slot TimeSlot) bool {
	return SameDate(r.Date, date) && r.TimeSlot.Overlaps(slot)
}

// ReservationStats summarises seat usage for the admin dashboard.
// OccupiedSeats counts seats with an Active reservation today.
type ReservationStats struct {
	TotalSeats         int            `json:"total_seats"`
	AvailableSeats     int            `json:"available_seats"`
	OccupiedSeats      int            `json:"occupied_seats"`
	TotalReservations  int            `json:"total_reservations"`
	ActiveReservations int            `json:"active_reservations"`
	UtilizationRate    float64        `json:"utilization_rate"`
	ByArea             map[string]int `json:"reservations_by_area"`
	ByTimeSlot         map[string]int `json:"reservations_by_time_slot"`
}
