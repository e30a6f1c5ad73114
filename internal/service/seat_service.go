package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// SeatService manages the seat inventory and derives per-date seat status.
type SeatService struct {
	seats        SeatStore
	reservations ReservationStore
	loc          *time.Location
	log          *zap.Logger

	Now func() time.Time
}

func NewSeatService(seats SeatStore, reservations ReservationStore, loc *time.Location, log *zap.Logger) *SeatService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SeatService{seats: seats, reservations: reservations, loc: loc, log: log.Named("seats"), Now: time.Now}
}

// SeatFilter selects the date, and optionally the slot, against which
// List derives each seat's status.
type SeatFilter struct {
	Date     string
	TimeSlot string
}

// SeatInput carries admin seat fields.  On update empty fields keep
// their current value.
type SeatInput struct {
	SeatNumber string
	Row        string
	Location   string
	Area       string
	Status     string
}

// SeatAvailability is a seat annotated with whether it is free for the
// requested date and slot.
type SeatAvailability struct {
	model.Seat
	IsAvailable bool `json:"is_available"`
}

// List returns every seat ordered by area and seat number.  With a date
// the status reflects that day's bookings; with a slot as well only
// reservations overlapping the slot count.
func (s *SeatService) List(ctx context.Context, f SeatFilter) ([]model.Seat, error) {
	seats, err := retryRead(ctx, s.seats.List)
	if err != nil {
		return nil, s.storage("list seats", err)
	}
	if strings.TrimSpace(f.Date) == "" {
		return seats, nil
	}
	date, err := model.ParseDate(f.Date)
	if err != nil {
		return nil, invalid("invalid date %q", f.Date)
	}
	var slot model.TimeSlot
	if strings.TrimSpace(f.TimeSlot) != "" {
		if slot, err = model.ParseTimeSlot(f.TimeSlot); err != nil {
			return nil, invalid("invalid time slot %q", f.TimeSlot)
		}
	}
	booked, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveByDate(ctx, date)
	})
	if err != nil {
		return nil, s.storage("list reservations", err)
	}
	for i := range seats {
		if slot == "" {
			seats[i].Status = ComputeDynamicSeatStatus(seats[i], date, booked)
		} else {
			seats[i].Status = ComputeSlotSeatStatus(seats[i], date, slot, booked)
		}
	}
	return seats, nil
}

// Availability lists administratively Available seats, ordered by row and
// seat number, flagged with whether slot on date is free.
func (s *SeatService) Availability(ctx context.Context, date, slot string) ([]SeatAvailability, error) {
	d, ts, err := parseDateSlot(date, slot)
	if err != nil {
		return nil, err
	}
	seats, err := retryRead(ctx, s.seats.List)
	if err != nil {
		return nil, s.storage("list seats", err)
	}
	booked, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveByDate(ctx, d)
	})
	if err != nil {
		return nil, s.storage("list reservations", err)
	}

	out := make([]SeatAvailability, 0, len(seats))
	for _, seat := range seats {
		if seat.Status != model.SeatAvailable {
			continue
		}
		out = append(out, SeatAvailability{
			Seat:        seat,
			IsAvailable: ComputeSlotSeatStatus(seat, d, ts, booked) == model.SeatAvailable,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (s *SeatService) Get(ctx context.Context, id uint64) (*model.Seat, error) {
	seat, err := retryRead(ctx, func(ctx context.Context) (*model.Seat, error) {
		return s.seats.GetByID(ctx, id)
	})
	if errors.Is(err, repository.ErrSeatNotFound) {
		return nil, reject(KindSeatNotFound, MsgSeatNotFound)
	}
	if err != nil {
		return nil, s.storage("load seat", err)
	}
	return seat, nil
}

// Create adds a seat.  Admin only.
func (s *SeatService) Create(ctx context.Context, sess model.Session, in SeatInput) (*model.Seat, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	seat := &model.Seat{
		SeatNumber: strings.TrimSpace(in.SeatNumber),
		Row:        strings.TrimSpace(in.Row),
		Location:   orDefault(in.Location, model.DefaultSeatLocation),
		Area:       orDefault(in.Area, model.DefaultSeatArea),
		Status:     model.SeatStatus(orDefault(in.Status, string(model.SeatAvailable))),
	}
	if seat.SeatNumber == "" || seat.Row == "" {
		return nil, invalid("seat_number and row are required")
	}
	if !seat.Status.Valid() {
		return nil, invalid("invalid status %q", in.Status)
	}
	if err := s.seats.Create(ctx, seat); err != nil {
		return nil, s.seatWriteErr("create seat", err)
	}
	return seat, nil
}

// Update changes the non-empty fields of in.  Admin only.
func (s *SeatService) Update(ctx context.Context, sess model.Session, id uint64, in SeatInput) (*model.Seat, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	seat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.SeatNumber); v != "" {
		seat.SeatNumber = v
	}
	if v := strings.TrimSpace(in.Row); v != "" {
		seat.Row = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		seat.Location = v
	}
	if v := strings.TrimSpace(in.Area); v != "" {
		seat.Area = v
	}
	if v := strings.TrimSpace(in.Status); v != "" {
		seat.Status = model.SeatStatus(v)
		if !seat.Status.Valid() {
			return nil, invalid("invalid status %q", in.Status)
		}
	}
	if err := s.seats.Update(ctx, seat); err != nil {
		return nil, s.seatWriteErr("update seat", err)
	}
	return seat, nil
}

// Delete removes a seat that has no Active reservation today or later.
// Admin only.
func (s *SeatService) Delete(ctx context.Context, sess model.Session, id uint64) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	today := model.DateOf(s.Now(), s.loc)
	if err := s.seats.DeleteIfIdle(ctx, id, today); err != nil {
		return s.seatWriteErr("delete seat", err)
	}
	return nil
}

func (s *SeatService) seatWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSeatNumberExists):
		return reject(KindConflict, "Seat number already exists")
	case errors.Is(err, repository.ErrSeatNotFound):
		return reject(KindSeatNotFound, MsgSeatNotFound)
	case errors.Is(err, repository.ErrConflict):
		return reject(KindConflict, "Seat has upcoming reservations")
	}
	return s.storage(op, err)
}

func (s *SeatService) storage(op string, err error) error {
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return storageErr(err)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
