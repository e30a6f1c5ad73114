package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/queue"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// SeatStore is the seat persistence used by the services.
type SeatStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
	List(ctx context.Context) ([]model.Seat, error)
	Create(ctx context.Context, s *model.Seat) error
	Update(ctx context.Context, s *model.Seat) error
	DeleteIfIdle(ctx context.Context, id uint64, from time.Time) error
}

// ReservationStore is the reservation persistence used by the services.
// CreateActive and Reschedule must claim the seat slots and the user day
// atomically and report a lost race as repository.ErrSlotTaken or
// repository.ErrUserDayTaken.
type ReservationStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListActiveByUserAndDate(ctx context.Context, userID uint64, date time.Time) ([]model.Reservation, error)
	ListActiveBySeatAndDate(ctx context.Context, seatID uint64, date time.Time) ([]model.Reservation, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	CreateActive(ctx context.Context, r *model.Reservation) error
	Reschedule(ctx context.Context, r *model.Reservation) error
	Cancel(ctx context.Context, id uint64, at time.Time) (*model.Reservation, bool, error)
	Summary(ctx context.Context, today time.Time) (repository.ReservationSummary, error)
}

// UserStore resolves users for admin assignment.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventPublisher receives an event after each committed reservation
// change.  Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationService loads the state a decision needs, asks the
// validator and performs the atomic write.
type ReservationService struct {
	seats        SeatStore
	reservations ReservationStore
	users        UserStore
	events       EventPublisher
	validator    ReservationValidator
	log          *zap.Logger

	// Now is the clock.  Tests replace it.
	Now func() time.Time
}

func NewReservationService(seats SeatStore, reservations ReservationStore, users UserStore,
	events EventPublisher, validator ReservationValidator, log *zap.Logger) *ReservationService {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = queue.LogPublisher{Log: log}
	}
	return &ReservationService{
		seats:        seats,
		reservations: reservations,
		users:        users,
		events:       events,
		validator:    validator,
		log:          log.Named("reservations"),
		Now:          time.Now,
	}
}

// CreateInput is a booking request as received from a client.  TimeSlot
// accepts the canonical form or the full-day display label.
type CreateInput struct {
	SeatID   uint64
	Date     string
	TimeSlot string
}

// Changes lists the fields of a reservation to move.  Zero values keep
// the current value.
type Changes struct {
	Date     string
	TimeSlot string
	SeatID   uint64
}

// AssignInput is an admin booking made on behalf of the user with Email.
type AssignInput struct {
	SeatID   uint64
	Email    string
	Date     string
	TimeSlot string
}

// Scope selects which of the caller's reservations ListMyReservations
// returns.
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeCurrent Scope = "current"
	ScopePast    Scope = "past"
)

// ListFilter narrows ListAll and report exports.
type ListFilter struct {
	Date   string
	Status string
	Query  string
}

// CreateReservation books a seat for the caller.
func (s *ReservationService) CreateReservation(ctx context.Context, sess model.Session, in CreateInput) (*model.Reservation, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	date, slot, err := parseDateSlot(in.Date, in.TimeSlot)
	if err != nil {
		return nil, err
	}
	if in.SeatID == 0 {
		return nil, invalid("seat_id is required")
	}
	return s.create(ctx, sess.UserID, sess.UserID, in.SeatID, date, slot)
}

// AssignReservation books a seat for another user.  Admin only.
func (s *ReservationService) AssignReservation(ctx context.Context, sess model.Session, in AssignInput) (*model.Reservation, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	date, slot, err := parseDateSlot(in.Date, in.TimeSlot)
	if err != nil {
		return nil, err
	}
	if in.SeatID == 0 || strings.TrimSpace(in.Email) == "" {
		return nil, invalid("seat_id and email are required")
	}
	u, err := retryRead(ctx, func(ctx context.Context) (*model.User, error) {
		return s.users.GetByEmail(ctx, in.Email)
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, reject(KindNotFound, MsgUserNotFound)
	}
	if err != nil {
		return nil, s.storage("load user", err)
	}
	return s.create(ctx, sess.UserID, u.ID, in.SeatID, date, slot)
}

func (s *ReservationService) create(ctx context.Context, actorID, userID, seatID uint64, date time.Time, slot model.TimeSlot) (*model.Reservation, error) {
	now := s.Now()

	seat, err := s.loadSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	seatRes, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveBySeatAndDate(ctx, seatID, date)
	})
	if err != nil {
		return nil, s.storage("load seat reservations", err)
	}
	userRes, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveByUserAndDate(ctx, userID, date)
	})
	if err != nil {
		return nil, s.storage("load user reservations", err)
	}

	if err := s.validator.ValidateCreate(userID, seat, date, slot, seatRes, userRes, now); err != nil {
		return nil, err
	}

	r := &model.Reservation{
		UserID:     userID,
		SeatID:     seatID,
		Date:       date,
		TimeSlot:   slot,
		Status:     model.ReservationActive,
		ReservedAt: now.UTC(),
	}
	if err := s.reservations.CreateActive(ctx, r); err != nil {
		return nil, s.writeErr("create reservation", err)
	}
	s.publish(ctx, queue.EventReservationCreated, r, actorID)
	return r, nil
}

// CancelReservation soft-deletes a reservation.  Cancelling twice returns
// the cancelled reservation without error.
func (s *ReservationService) CancelReservation(ctx context.Context, sess model.Session, id uint64) (*model.Reservation, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	existing, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateOwnership(existing, sess); err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return existing, nil
	}
	r, changed, err := s.reservations.Cancel(ctx, id, s.Now())
	if err != nil {
		return nil, s.writeErr("cancel reservation", err)
	}
	if changed {
		s.publish(ctx, queue.EventReservationCancelled, r, sess.UserID)
	}
	return r, nil
}

// ModifyReservation moves a reservation to a new date, slot or seat.
// Only the checks affected by the change are re-run, and the reservation
// never conflicts with itself.
func (s *ReservationService) ModifyReservation(ctx context.Context, sess model.Session, id uint64, ch Changes) (*model.Reservation, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	now := s.Now()

	existing, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateModification(existing, sess, now); err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return nil, reject(KindConflict, "Cancelled reservations cannot be modified")
	}

	target := *existing
	if strings.TrimSpace(ch.Date) != "" {
		d, err := model.ParseDate(ch.Date)
		if err != nil {
			return nil, invalid("invalid date %q", ch.Date)
		}
		target.Date = d
	}
	if strings.TrimSpace(ch.TimeSlot) != "" {
		slot, err := model.ParseTimeSlot(ch.TimeSlot)
		if err != nil {
			return nil, invalid("invalid time slot %q", ch.TimeSlot)
		}
		target.TimeSlot = slot
	}
	if ch.SeatID != 0 {
		target.SeatID = ch.SeatID
	}

	dateChanged := !model.SameDate(target.Date, existing.Date)
	slotChanged := target.TimeSlot != existing.TimeSlot
	seatChanged := target.SeatID != existing.SeatID
	if !dateChanged && !slotChanged && !seatChanged {
		return existing, nil
	}

	if dateChanged || slotChanged {
		if err := s.validator.ValidateTiming(target.Date, target.TimeSlot, now); err != nil {
			return nil, err
		}
	}
	seat, err := s.loadSeat(ctx, target.SeatID)
	if err != nil {
		return nil, err
	}
	seatRes, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveBySeatAndDate(ctx, target.SeatID, target.Date)
	})
	if err != nil {
		return nil, s.storage("load seat reservations", err)
	}
	if err := s.validator.ValidateSeatAvailability(seat, target.Date, target.TimeSlot, excluding(seatRes, id)); err != nil {
		return nil, err
	}
	if dateChanged {
		userRes, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
			return s.reservations.ListActiveByUserAndDate(ctx, existing.UserID, target.Date)
		})
		if err != nil {
			return nil, s.storage("load user reservations", err)
		}
		if err := s.validator.ValidateNoDoubleBookingForUser(existing.UserID, target.Date, excluding(userRes, id)); err != nil {
			return nil, err
		}
	}

	if err := s.reservations.Reschedule(ctx, &target); err != nil {
		return nil, s.writeErr("reschedule reservation", err)
	}
	s.publish(ctx, queue.EventReservationModified, &target, sess.UserID)
	return &target, nil
}

// ListAvailableSlots returns the hourly slots of date not covered by an
// Active reservation of the seat.  A full-day booking covers them all.
func (s *ReservationService) ListAvailableSlots(ctx context.Context, seatID uint64, date string) ([]model.TimeSlot, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return nil, invalid("invalid date %q", date)
	}
	seat, err := s.loadSeat(ctx, seatID)
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, reject(KindSeatNotFound, MsgSeatNotFound)
	}
	booked, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.ListActiveBySeatAndDate(ctx, seatID, d)
	})
	if err != nil {
		return nil, s.storage("load seat reservations", err)
	}

	taken := map[model.TimeSlot]bool{}
	for _, r := range booked {
		for _, slot := range r.TimeSlot.Covers() {
			taken[slot] = true
		}
	}
	free := make([]model.TimeSlot, 0, len(model.HourlySlots))
	for _, slot := range model.HourlySlots {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

// ListMyReservations returns the caller's reservations in scope.
func (s *ReservationService) ListMyReservations(ctx context.Context, sess model.Session, scope Scope) ([]model.Reservation, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	today := s.today()
	f := repository.ReservationFilter{UserID: sess.UserID}
	switch scope {
	case ScopeAll, "":
	case ScopeCurrent:
		f.Status = model.ReservationActive
		f.FromDate = &today
		f.Ascending = true
	case ScopePast:
		f.PastBefore = &today
	default:
		return nil, invalid("unknown scope %q", scope)
	}
	out, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.List(ctx, f)
	})
	if err != nil {
		return nil, s.storage("list reservations", err)
	}
	return out, nil
}

// ListAll returns every reservation matching f.  Admin only.
func (s *ReservationService) ListAll(ctx context.Context, sess model.Session, f ListFilter) ([]model.Reservation, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	rf, err := toRepoFilter(f)
	if err != nil {
		return nil, err
	}
	out, err := retryRead(ctx, func(ctx context.Context) ([]model.Reservation, error) {
		return s.reservations.List(ctx, rf)
	})
	if err != nil {
		return nil, s.storage("list reservations", err)
	}
	return out, nil
}

// Stats summarises seat usage for today.  Admin only.
func (s *ReservationService) Stats(ctx context.Context, sess model.Session) (model.ReservationStats, error) {
	if err := requireAdmin(sess); err != nil {
		return model.ReservationStats{}, err
	}
	seats, err := retryRead(ctx, s.seats.List)
	if err != nil {
		return model.ReservationStats{}, s.storage("list seats", err)
	}
	today := s.today()
	sum, err := retryRead(ctx, func(ctx context.Context) (repository.ReservationSummary, error) {
		return s.reservations.Summary(ctx, today)
	})
	if err != nil {
		return model.ReservationStats{}, s.storage("summarise reservations", err)
	}

	st := model.ReservationStats{
		TotalSeats:         len(seats),
		OccupiedSeats:      sum.OccupiedSeats,
		TotalReservations:  sum.Total,
		ActiveReservations: sum.Active,
		ByArea:             sum.ByArea,
		ByTimeSlot:         sum.ByTimeSlot,
	}
	st.AvailableSeats = st.TotalSeats - st.OccupiedSeats
	if st.TotalSeats > 0 {
		rate := float64(st.OccupiedSeats) / float64(st.TotalSeats) * 100
		st.UtilizationRate = math.Round(rate*10) / 10
	}
	return st, nil
}

// ComputeDynamicSeatStatus reports a seat as Unavailable for date when it
// is administratively Unavailable or any Active reservation holds it on
// that date.
func ComputeDynamicSeatStatus(seat model.Seat, date time.Time, reservations []model.Reservation) model.SeatStatus {
	if seat.Status != model.SeatAvailable {
		return model.SeatUnavailable
	}
	for i := range reservations {
		r := &reservations[i]
		if r.SeatID == seat.ID && r.IsActive() && model.SameDate(r.Date, date) {
			return model.SeatUnavailable
		}
	}
	return model.SeatAvailable
}

// ComputeSlotSeatStatus is ComputeDynamicSeatStatus narrowed to one slot:
// only reservations overlapping slot make the seat Unavailable.
func ComputeSlotSeatStatus(seat model.Seat, date time.Time, slot model.TimeSlot, reservations []model.Reservation) model.SeatStatus {
	if seat.Status != model.SeatAvailable {
		return model.SeatUnavailable
	}
	for i := range reservations {
		r := &reservations[i]
		if r.SeatID == seat.ID && r.IsActive() && r.Overlaps(date, slot) {
			return model.SeatUnavailable
		}
	}
	return model.SeatAvailable
}

func (s *ReservationService) today() time.Time {
	return model.DateOf(s.Now(), s.validator.loc())
}

// loadSeat returns nil without error when the seat does not exist so the
// validator can order the rejection.
func (s *ReservationService) loadSeat(ctx context.Context, id uint64) (*model.Seat, error) {
	seat, err := retryRead(ctx, func(ctx context.Context) (*model.Seat, error) {
		return s.seats.GetByID(ctx, id)
	})
	if errors.Is(err, repository.ErrSeatNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, s.storage("load seat", err)
	}
	return seat, nil
}

func (s *ReservationService) loadReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, err := retryRead(ctx, func(ctx context.Context) (*model.Reservation, error) {
		return s.reservations.GetByID(ctx, id)
	})
	if errors.Is(err, repository.ErrReservationNotFound) {
		return nil, reject(KindNotFound, MsgNotFound)
	}
	if err != nil {
		return nil, s.storage("load reservation", err)
	}
	return r, nil
}

// writeErr translates a failed write.  Writes are never retried: a lost
// claim race is reported as the rule it would have broken.
func (s *ReservationService) writeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return reject(KindSlotConflict, MsgSlotConflict)
	case errors.Is(err, repository.ErrUserDayTaken):
		return reject(KindOneSeatPerDay, MsgOneSeatPerDay)
	case errors.Is(err, repository.ErrSeatNotFound):
		return reject(KindSeatNotFound, MsgSeatNotFound)
	case errors.Is(err, repository.ErrSeatUnavailable):
		return reject(KindSeatUnavailable, MsgSeatUnavailable)
	case errors.Is(err, repository.ErrReservationNotFound):
		return reject(KindNotFound, MsgNotFound)
	case errors.Is(err, repository.ErrConflict):
		return reject(KindConflict, "Cancelled reservations cannot be modified")
	}
	return s.storage(op, err)
}

func (s *ReservationService) storage(op string, err error) error {
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return storageErr(err)
}

func (s *ReservationService) publish(ctx context.Context, typ string, r *model.Reservation, actorID uint64) {
	ev := queue.NewReservationEvent(typ, r, actorID, s.Now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed",
			zap.String("type", typ), zap.Uint64("reservation_id", r.ID), zap.Error(err))
	}
}

// retryRead runs a read and repeats it once after a storage failure.
// Not-found results and cancelled contexts are returned immediately.
func retryRead[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	v, err := read(ctx)
	if err == nil || isMiss(err) || ctx.Err() != nil {
		return v, err
	}
	return read(ctx)
}

func isMiss(err error) bool {
	return errors.Is(err, repository.ErrSeatNotFound) ||
		errors.Is(err, repository.ErrReservationNotFound) ||
		errors.Is(err, repository.ErrUserNotFound)
}

func excluding(rs []model.Reservation, id uint64) []model.Reservation {
	out := rs[:0:0]
	for _, r := range rs {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func parseDateSlot(date, slot string) (time.Time, model.TimeSlot, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(slot) == "" {
		return time.Time{}, "", invalid("Seat ID, date, and time slot are required")
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return time.Time{}, "", invalid("invalid date %q", date)
	}
	ts, err := model.ParseTimeSlot(slot)
	if err != nil {
		return time.Time{}, "", invalid("invalid time slot %q", slot)
	}
	return d, ts, nil
}

func toRepoFilter(f ListFilter) (repository.ReservationFilter, error) {
	rf := repository.ReservationFilter{Query: f.Query}
	if strings.TrimSpace(f.Date) != "" {
		d, err := model.ParseDate(f.Date)
		if err != nil {
			return rf, invalid("invalid date %q", f.Date)
		}
		rf.Date = &d
	}
	if f.Status != "" {
		st := model.ReservationStatus(f.Status)
		if !st.Valid() {
			return rf, invalid("invalid status %q", f.Status)
		}
		rf.Status = st
	}
	return rf, nil
}

func requireSession(sess model.Session) error {
	if sess.UserID == 0 || !sess.Role.Valid() {
		return reject(KindForbidden, MsgForbidden)
	}
	return nil
}

func requireAdmin(sess model.Session) error {
	if sess.UserID == 0 || !sess.IsAdmin() {
		return reject(KindForbidden, MsgAdminOnly)
	}
	return nil
}
