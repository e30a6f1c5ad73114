package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

type Reservations struct{ s *Store }

// joined returns r with the seat and user display fields filled in.
// Callers hold s.mu.
func (s *Store) joined(r model.Reservation) model.Reservation {
	if seat, ok := s.seats[r.SeatID]; ok {
		r.SeatNumber = seat.SeatNumber
		r.SeatRow = seat.Row
		r.SeatLocation = seat.Location
		r.SeatArea = seat.Area
	}
	if u, ok := s.users[r.UserID]; ok {
		r.UserName = u.Name
		r.UserEmail = u.Email
		r.UserRole = u.Role
	}
	return r
}

func (v *Reservations) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	r, ok := v.s.reservations[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	r = v.s.joined(r)
	return &r, nil
}

func (v *Reservations) ListActiveByUserAndDate(ctx context.Context, userID uint64, date time.Time) ([]model.Reservation, error) {
	return v.List(ctx, repository.ReservationFilter{UserID: userID, Date: &date, Status: model.ReservationActive, Ascending: true})
}

func (v *Reservations) ListActiveBySeatAndDate(ctx context.Context, seatID uint64, date time.Time) ([]model.Reservation, error) {
	return v.List(ctx, repository.ReservationFilter{SeatID: seatID, Date: &date, Status: model.ReservationActive, Ascending: true})
}

func (v *Reservations) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	return v.List(ctx, repository.ReservationFilter{Date: &date, Status: model.ReservationActive, Ascending: true})
}

// List mirrors the filtering and ordering of repository.ReservationRepo.List.
func (v *Reservations) List(_ context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []model.Reservation
	for _, r := range v.s.reservations {
		r = v.s.joined(r)
		switch {
		case f.UserID != 0 && r.UserID != f.UserID,
			f.SeatID != 0 && r.SeatID != f.SeatID,
			f.Date != nil && !model.SameDate(r.Date, *f.Date),
			f.FromDate != nil && r.Date.Before(*f.FromDate),
			f.PastBefore != nil && !r.Date.Before(*f.PastBefore) && r.Status != model.ReservationCancelled,
			f.Status != "" && r.Status != f.Status:
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.UserName), query) &&
			!strings.Contains(strings.ToLower(r.UserEmail), query) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			if f.Ascending {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		if f.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	return out, nil
}

// CreateActive mirrors repository.ReservationRepo.CreateActive: the seat
// is re-checked and every claim taken or none.
func (v *Reservations) CreateActive(_ context.Context, r *model.Reservation) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if err := v.s.checkSeat(r.SeatID); err != nil {
		return err
	}
	v.s.nextReservation++
	r.ID = v.s.nextReservation
	if err := v.s.claim(r); err != nil {
		v.s.nextReservation--
		r.ID = 0
		return err
	}
	now := v.s.now().UTC()
	r.Status = model.ReservationActive
	r.CancelledAt = nil
	r.CreatedAt, r.UpdatedAt = now, now
	v.s.reservations[r.ID] = *r
	*r = v.s.joined(*r)
	return nil
}

// Reschedule mirrors repository.ReservationRepo.Reschedule.
func (v *Reservations) Reschedule(_ context.Context, r *model.Reservation) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	current, ok := v.s.reservations[r.ID]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if !current.IsActive() {
		return repository.ErrConflict
	}
	if err := v.s.checkSeat(r.SeatID); err != nil {
		return err
	}
	v.s.release(current.ID)
	next := current
	next.SeatID, next.Date, next.TimeSlot = r.SeatID, r.Date, r.TimeSlot
	if err := v.s.claim(&next); err != nil {
		// restore the original claims; they were free a moment ago
		_ = v.s.claim(&current)
		return err
	}
	next.UpdatedAt = v.s.now().UTC()
	v.s.reservations[next.ID] = next
	*r = v.s.joined(next)
	return nil
}

// Cancel mirrors repository.ReservationRepo.Cancel.
func (v *Reservations) Cancel(_ context.Context, id uint64, at time.Time) (*model.Reservation, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	r, ok := v.s.reservations[id]
	if !ok {
		return nil, false, repository.ErrReservationNotFound
	}
	changed := false
	if r.IsActive() {
		at = at.UTC()
		r.Status = model.ReservationCancelled
		r.CancelledAt = &at
		r.UpdatedAt = at
		v.s.reservations[id] = r
		v.s.release(id)
		changed = true
	}
	r = v.s.joined(r)
	return &r, changed, nil
}

// Summary mirrors repository.ReservationRepo.Summary.
func (v *Reservations) Summary(_ context.Context, today time.Time) (repository.ReservationSummary, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	sum := repository.ReservationSummary{ByArea: map[string]int{}, ByTimeSlot: map[string]int{}}
	occupied := map[uint64]bool{}
	for _, r := range v.s.reservations {
		sum.Total++
		if !r.IsActive() {
			continue
		}
		sum.Active++
		if model.SameDate(r.Date, today) {
			occupied[r.SeatID] = true
		}
		if r.Date.Before(today) {
			continue
		}
		r = v.s.joined(r)
		sum.ByArea[r.SeatArea]++
		sum.ByTimeSlot[string(r.TimeSlot)]++
	}
	sum.OccupiedSeats = len(occupied)
	return sum, nil
}

func (s *Store) checkSeat(id uint64) error {
	seat, ok := s.seats[id]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if seat.Status != model.SeatAvailable {
		return repository.ErrSeatUnavailable
	}
	return nil
}

// claim takes every seat slot key and then the user day key for r,
// leaving nothing behind on failure.  Callers hold s.mu.
func (s *Store) claim(r *model.Reservation) error {
	date := dateKey(r.Date)
	slots := r.TimeSlot.Covers()
	for _, slot := range slots {
		if _, taken := s.slotClaims[slotKey{r.SeatID, date, slot}]; taken {
			return repository.ErrSlotTaken
		}
	}
	if _, taken := s.dayClaims[dayKey{r.UserID, date}]; taken {
		return repository.ErrUserDayTaken
	}
	for _, slot := range slots {
		s.slotClaims[slotKey{r.SeatID, date, slot}] = r.ID
	}
	s.dayClaims[dayKey{r.UserID, date}] = r.ID
	return nil
}

func (s *Store) release(reservationID uint64) {
	for k, id := range s.slotClaims {
		if id == reservationID {
			delete(s.slotClaims, k)
		}
	}
	for k, id := range s.dayClaims {
		if id == reservationID {
			delete(s.dayClaims, k)
		}
	}
}
