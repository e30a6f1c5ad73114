package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, seat_number, row_label, location, area, status, created_at, updated_at`

// Create inserts a single seat record. On success the seat's ID and
// timestamps are populated.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (seat_number, row_label, location, area, status)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.SeatNumber, s.Row, s.Location, s.Area, string(s.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSeatNumberExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// Update overwrites the mutable columns of a seat.
func (r *SeatRepo) Update(ctx context.Context, s *model.Seat) error {
	const q = `UPDATE seats SET seat_number = ?, row_label = ?, location = ?, area = ?, status = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, s.SeatNumber, s.Row, s.Location, s.Area, string(s.Status), s.ID); err != nil {
		if isDuplicateKey(err) {
			return ErrSeatNumberExists
		}
		return err
	}
	// MySQL reports 0 affected rows for a no-op update, so existence is
	// confirmed by reading the row back.
	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// List returns every seat ordered by area then seat number.
func (r *SeatRepo) List(ctx context.Context) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats ORDER BY area, seat_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of seats.
func (r *SeatRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n)
	return n, err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id)
	return scanSeat(row)
}

// DeleteIfIdle removes a seat unless an Active reservation dated on or
// after from still references it.  The seat row is locked for the
// duration of the check so a concurrent booking, which takes a shared lock
// on the same row, cannot slip in between.
func (r *SeatRepo) DeleteIfIdle(ctx context.Context, id uint64, from time.Time) error {
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

	var locked uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM seats WHERE id = ? FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	var upcoming bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE seat_id = ? AND status = 'Active' AND date >= ?)`,
		id, from.Format(model.DateLayout)).Scan(&upcoming); err != nil {
		return err
	}
	if upcoming {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(row rowScanner) (*model.Seat, error) {
	var s model.Seat
	var status string
	err := row.Scan(&s.ID, &s.SeatNumber, &s.Row, &s.Location, &s.Area, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	s.Status = model.SeatStatus(status)
	return &s, nil
}
