// Package memory is an in-process implementation of the repository
// stores.  It enforces the same claim keys as the MySQL schema under a
// single mutex, so a lost race surfaces as repository.ErrSlotTaken or
// repository.ErrUserDayTaken exactly as it does against the database.
// It backs the service and handler tests and local demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/utils"
)

type slotKey struct {
	seatID uint64
	date   string
	slot   model.TimeSlot
}

type dayKey struct {
	userID uint64
	date   string
}

type tokenRow struct {
	userID    uint64
	expiresAt time.Time
	revokedAt *time.Time
}

// Store holds every table.  Use the Users, Seats, Reservations and
// Tokens views to reach the per-table methods.
type Store struct {
	mu sync.Mutex

	nextUser, nextSeat, nextReservation uint64

	users        map[uint64]model.User
	seats        map[uint64]model.Seat
	reservations map[uint64]model.Reservation
	slotClaims   map[slotKey]uint64
	dayClaims    map[dayKey]uint64
	tokens       map[string]tokenRow

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:        map[uint64]model.User{},
		seats:        map[uint64]model.Seat{},
		reservations: map[uint64]model.Reservation{},
		slotClaims:   map[slotKey]uint64{},
		dayClaims:    map[dayKey]uint64{},
		tokens:       map[string]tokenRow{},
		now:          time.Now,
	}
}

func (s *Store) Users() *Users               { return &Users{s} }
func (s *Store) Seats() *Seats               { return &Seats{s} }
func (s *Store) Reservations() *Reservations { return &Reservations{s} }
func (s *Store) Tokens() *Tokens             { return &Tokens{s} }

func dateKey(t time.Time) string { return t.Format(model.DateLayout) }

// ---- users ----

type Users struct{ s *Store }

// Create mirrors repository.UserRepo.Create.
func (u *Users) Create(_ context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	email = repository.NormalizeEmail(email)
	for _, existing := range u.s.users {
		if existing.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	u.s.nextUser++
	now := u.s.now().UTC()
	u.s.users[u.s.nextUser] = model.User{
		ID:           u.s.nextUser,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return u.s.nextUser, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, existing := range u.s.users {
		if existing.Email == email {
			out := existing
			return &out, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (u *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	existing, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &existing, nil
}

// ---- seats ----

type Seats struct{ s *Store }

func (v *Seats) Create(_ context.Context, seat *model.Seat) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.seats {
		if existing.SeatNumber == seat.SeatNumber {
			return repository.ErrSeatNumberExists
		}
	}
	v.s.nextSeat++
	now := v.s.now().UTC()
	seat.ID = v.s.nextSeat
	seat.CreatedAt, seat.UpdatedAt = now, now
	v.s.seats[seat.ID] = *seat
	return nil
}

func (v *Seats) Update(_ context.Context, seat *model.Seat) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	current, ok := v.s.seats[seat.ID]
	if !ok {
		return repository.ErrSeatNotFound
	}
	for id, existing := range v.s.seats {
		if id != seat.ID && existing.SeatNumber == seat.SeatNumber {
			return repository.ErrSeatNumberExists
		}
	}
	seat.CreatedAt = current.CreatedAt
	seat.UpdatedAt = v.s.now().UTC()
	v.s.seats[seat.ID] = *seat
	return nil
}

func (v *Seats) List(_ context.Context) ([]model.Seat, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.Seat, 0, len(v.s.seats))
	for _, seat := range v.s.seats {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (v *Seats) Count(_ context.Context) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return len(v.s.seats), nil
}

func (v *Seats) GetByID(_ context.Context, id uint64) (*model.Seat, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	seat, ok := v.s.seats[id]
	if !ok {
		return nil, repository.ErrSeatNotFound
	}
	return &seat, nil
}

// DeleteIfIdle mirrors repository.SeatRepo.DeleteIfIdle.
func (v *Seats) DeleteIfIdle(_ context.Context, id uint64, from time.Time) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.seats[id]; !ok {
		return repository.ErrSeatNotFound
	}
	for _, r := range v.s.reservations {
		if r.SeatID == id && r.IsActive() && !r.Date.Before(from) {
			return repository.ErrConflict
		}
	}
	delete(v.s.seats, id)
	return nil
}

// ---- refresh tokens ----

type Tokens struct{ s *Store }

func (t *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.tokens[tokenHash] = tokenRow{userID: userID, expiresAt: exp.UTC()}
	return nil
}

func (t *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.tokens[tokenHash]
	if !ok || row.revokedAt != nil || t.s.now().UTC().After(row.expiresAt) {
		return 0, repository.ErrInvalidRefresh
	}
	return row.userID, nil
}

func (t *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if row, ok := t.s.tokens[tokenHash]; ok && row.revokedAt == nil {
		now := t.s.now().UTC()
		row.revokedAt = &now
		t.s.tokens[tokenHash] = row
	}
	return nil
}

func (t *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	now := t.s.now().UTC()
	for hash, row := range t.s.tokens {
		if row.userID == userID && row.revokedAt == nil {
			row.revokedAt = &now
			t.s.tokens[hash] = row
		}
	}
	return nil
}

func (t *Tokens) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var n int64
	for hash, row := range t.s.tokens {
		if row.expiresAt.Before(cutoff) || (row.revokedAt != nil && row.revokedAt.Before(cutoff)) {
			delete(t.s.tokens, hash)
			n++
		}
	}
	return n, nil
}
