package model

import "time"

// SeatStatus is the administrative availability flag of a seat.  It is
// independent of bookings: a seat can be Available and still be reserved
// for a particular date.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "Available"
	SeatUnavailable SeatStatus = "Unavailable"
)

// Valid reports whether s is a known seat status.
func (s SeatStatus) Valid() bool { return s == SeatAvailable || s == SeatUnavailable }

// Default values applied when an admin creates a seat without them.
const (
	DefaultSeatLocation = "Main Hall"
	DefaultSeatArea     = "Floor 1"
)

// Seat describes a physical desk seat.  Seats are uniquely identified by
// their human-readable seat number (for example "A1").
//
// Fields:
//
//	ID         – primary key identifier.
//	SeatNumber – unique label such as A1.
//	Row        – row label the seat belongs to.
//	Location   – building or room, defaults to Main Hall.
//	Area       – floor or zone grouping, defaults to Floor 1.
//	Status     – administrative status (Available, Unavailable).
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64     `json:"id"`          // seats.id
	SeatNumber string     `json:"seat_number"` // seats.seat_number
	Row        string     `json:"row"`         // seats.row_label
	Location   string     `json:"location"`    // seats.location
	Area       string     `json:"area"`        // seats.area
	Status     SeatStatus `json:"status"`      // seats.status
	CreatedAt  time.Time  `json:"created_at"`  // seats.created_at
	UpdatedAt  time.Time  `json:"updated_at"`  // seats.updated_at
}
