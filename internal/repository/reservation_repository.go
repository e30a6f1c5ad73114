package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// ReservationRepo stores reservations and their claim rows.  Every write
// that changes which seat slots or user days an Active reservation holds
// runs in one transaction together with the matching claim inserts and
// deletes, so the claim primary keys arbitrate concurrent requests.  All
// timestamp fields are stored in UTC; dates are plain DATE columns.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationFilter narrows List.  Zero values mean "any".
type ReservationFilter struct {
	UserID uint64
	SeatID uint64
	Date   *time.Time
	// FromDate keeps reservations dated on or after it.
	FromDate *time.Time
	// PastBefore keeps reservations dated before it or already cancelled.
	PastBefore *time.Time
	Status     model.ReservationStatus
	// Query matches a case-insensitive substring of the user's name or email.
	Query string
	// Ascending orders by date ascending; the default is newest first.
	Ascending bool
}

// ReservationSummary holds the aggregate counters behind the admin
// dashboard.  Per-area and per-slot counts cover Active reservations
// dated on or after the reference day.
type ReservationSummary struct {
	Total         int
	Active        int
	OccupiedSeats int
	ByArea        map[string]int
	ByTimeSlot    map[string]int
}

const reservationSelect = `SELECT r.id, r.user_id, r.seat_id, r.date, r.time_slot, r.status,
       r.reserved_at, r.cancelled_at, r.created_at, r.updated_at,
       s.seat_number, s.row_label, s.location, s.area,
       u.name, u.email, u.role
  FROM reservations r
  LEFT JOIN seats s ON s.id = r.seat_id
  LEFT JOIN users u ON u.id = r.user_id`

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetByID loads a reservation with its seat and user display fields.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return loadReservation(ctx, r.db, id)
}

func loadReservation(ctx context.Context, q rowQuerier, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(q.QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// ListActiveByUserAndDate returns the user's Active reservations on date.
func (r *ReservationRepo) ListActiveByUserAndDate(ctx context.Context, userID uint64, date time.Time) ([]model.Reservation, error) {
	return r.List(ctx, ReservationFilter{UserID: userID, Date: &date, Status: model.ReservationActive, Ascending: true})
}

// ListActiveBySeatAndDate returns the seat's Active reservations on date.
func (r *ReservationRepo) ListActiveBySeatAndDate(ctx context.Context, seatID uint64, date time.Time) ([]model.Reservation, error) {
	return r.List(ctx, ReservationFilter{SeatID: seatID, Date: &date, Status: model.ReservationActive, Ascending: true})
}

// ListActiveByDate returns every Active reservation on date.
func (r *ReservationRepo) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	return r.List(ctx, ReservationFilter{Date: &date, Status: model.ReservationActive, Ascending: true})
}

// List returns reservations matching f ordered by date, then time slot.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.SeatID != 0 {
		where = append(where, "r.seat_id = ?")
		args = append(args, f.SeatID)
	}
	if f.Date != nil {
		where = append(where, "r.date = ?")
		args = append(args, f.Date.Format(model.DateLayout))
	}
	if f.FromDate != nil {
		where = append(where, "r.date >= ?")
		args = append(args, f.FromDate.Format(model.DateLayout))
	}
	if f.PastBefore != nil {
		where = append(where, "(r.date < ? OR r.status = 'Cancelled')")
		args = append(args, f.PastBefore.Format(model.DateLayout))
	}
	if f.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, string(f.Status))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		where = append(where, "(LOWER(u.name) LIKE ? OR LOWER(u.email) LIKE ?)")
		args = append(args, like, like)
	}

	var sb strings.Builder
	sb.WriteString(reservationSelect)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if f.Ascending {
		sb.WriteString(" ORDER BY r.date ASC, r.time_slot ASC, r.id ASC")
	} else {
		sb.WriteString(" ORDER BY r.date DESC, r.time_slot ASC, r.id DESC")
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// CreateActive inserts res as an Active reservation.  Inside one
// transaction it re-checks the seat under a shared lock, inserts the row,
// then claims every hourly slot covered and the user's day.  A claim
// collision aborts the transaction with ErrSlotTaken or ErrUserDayTaken.
// On success res holds the row as read inside the transaction; nothing
// is read after the commit.
func (r *ReservationRepo) CreateActive(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockSeatForBooking(ctx, tx, res.SeatID); err != nil {
		return err
	}

	date := res.Date.Format(model.DateLayout)
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, seat_id, date, time_slot, status, reserved_at)
		 VALUES (?, ?, ?, ?, 'Active', ?)`,
		res.UserID, res.SeatID, date, string(res.TimeSlot), res.ReservedAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if err := insertClaims(ctx, tx, res); err != nil {
		return err
	}
	stored, err := loadReservation(ctx, tx, res.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*res = *stored
	return nil
}

// Reschedule moves an Active reservation to res's seat, date and time
// slot.  The old claims are released and the new ones taken in the same
// transaction, so a collision leaves the original booking untouched.
func (r *ReservationRepo) Reschedule(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ? FOR UPDATE`, res.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		return err
	}
	if model.ReservationStatus(status) != model.ReservationActive {
		return ErrConflict
	}
	if err := lockSeatForBooking(ctx, tx, res.SeatID); err != nil {
		return err
	}
	if err := deleteClaims(ctx, tx, res.ID); err != nil {
		return err
	}
	if err := insertClaims(ctx, tx, res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET seat_id = ?, date = ?, time_slot = ? WHERE id = ?`,
		res.SeatID, res.Date.Format(model.DateLayout), string(res.TimeSlot), res.ID); err != nil {
		return err
	}
	stored, err := loadReservation(ctx, tx, res.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*res = *stored
	return nil
}

// Cancel soft-deletes a reservation and frees its claims.  Cancelling an
// already cancelled reservation changes nothing; changed reports whether
// this call performed the transition.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64, at time.Time) (res *model.Reservation, changed bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrReservationNotFound
		}
		return nil, false, err
	}
	if model.ReservationStatus(status) == model.ReservationActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE reservations SET status = 'Cancelled', cancelled_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
			return nil, false, err
		}
		if err := deleteClaims(ctx, tx, id); err != nil {
			return nil, false, err
		}
		changed = true
	}
	res, err = loadReservation(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	return res, changed, nil
}

// Summary computes dashboard counters relative to today.
func (r *ReservationRepo) Summary(ctx context.Context, today time.Time) (ReservationSummary, error) {
	day := today.Format(model.DateLayout)
	sum := ReservationSummary{ByArea: map[string]int{}, ByTimeSlot: map[string]int{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'Active'), 0),
		        COUNT(DISTINCT CASE WHEN status = 'Active' AND date = ? THEN seat_id END)
		   FROM reservations`, day).Scan(&sum.Total, &sum.Active, &sum.OccupiedSeats)
	if err != nil {
		return sum, err
	}

	if err := r.groupCount(ctx,
		`SELECT COALESCE(s.area, ''), COUNT(*) FROM reservations r
		   LEFT JOIN seats s ON s.id = r.seat_id
		  WHERE r.status = 'Active' AND r.date >= ? GROUP BY s.area`, day, sum.ByArea); err != nil {
		return sum, err
	}
	if err := r.groupCount(ctx,
		`SELECT time_slot, COUNT(*) FROM reservations
		  WHERE status = 'Active' AND date >= ? GROUP BY time_slot`, day, sum.ByTimeSlot); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *ReservationRepo) groupCount(ctx context.Context, q, day string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, q, day)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

// lockSeatForBooking takes a shared lock on the seat row so an admin
// delete or status change serialises with the booking, and re-checks the
// seat inside the transaction.
func lockSeatForBooking(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM seats WHERE id = ? LOCK IN SHARE MODE`, seatID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	if model.SeatStatus(status) != model.SeatAvailable {
		return ErrSeatUnavailable
	}
	return nil
}

// insertClaims claims the seat slots first and the user day second,
// mirroring the order in which the validator reports conflicts.
func insertClaims(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	date := res.Date.Format(model.DateLayout)
	for _, slot := range res.TimeSlot.Covers() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO seat_slot_claims (seat_id, date, slot, reservation_id) VALUES (?, ?, ?, ?)`,
			res.SeatID, date, string(slot), res.ID); err != nil {
			if isClaimRace(err) {
				return ErrSlotTaken
			}
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_day_claims (user_id, date, reservation_id) VALUES (?, ?, ?)`,
		res.UserID, date, res.ID); err != nil {
		if isClaimRace(err) {
			return ErrUserDayTaken
		}
		return err
	}
	return nil
}

func deleteClaims(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM seat_slot_claims WHERE reservation_id = ?`, reservationID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM user_day_claims WHERE reservation_id = ?`, reservationID)
	return err
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res                            model.Reservation
		slot, status                   string
		cancelledAt                    sql.NullTime
		seatNumber, seatRow, loc, area sql.NullString
		userName, userEmail, userRole  sql.NullString
	)
	err := row.Scan(&res.ID, &res.UserID, &res.SeatID, &res.Date, &slot, &status,
		&res.ReservedAt, &cancelledAt, &res.CreatedAt, &res.UpdatedAt,
		&seatNumber, &seatRow, &loc, &area,
		&userName, &userEmail, &userRole)
	if err != nil {
		return nil, err
	}
	res.TimeSlot = model.TimeSlot(slot)
	res.Status = model.ReservationStatus(status)
	if cancelledAt.Valid {
		t := cancelledAt.Time
		res.CancelledAt = &t
	}
	res.SeatNumber = seatNumber.String
	res.SeatRow = seatRow.String
	res.SeatLocation = loc.String
	res.SeatArea = area.String
	res.UserName = userName.String
	res.UserEmail = userEmail.String
	res.UserRole = model.Role(userRole.String)
	return &res, nil
}
