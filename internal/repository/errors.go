// Package repository defines the MySQL data access layer and the error
// values shared by every store implementation.  Higher layers use these
// sentinels to distinguish failure scenarios; the service package turns
// them into typed rejections.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrEmailExists      = errors.New("email already exists")
	ErrSeatNumberExists = errors.New("seat number already exists")

	// ErrSeatUnavailable is returned by writes that find the seat's
	// administrative status switched to Unavailable under them.
	ErrSeatUnavailable = errors.New("seat not available")

	// ErrSlotTaken and ErrUserDayTaken report a lost race on the claim
	// keys: another Active reservation already holds the seat slot, or
	// the user already has a seat on that date.
	ErrSlotTaken    = errors.New("seat slot already claimed")
	ErrUserDayTaken = errors.New("user already holds a seat on that date")

	// ErrConflict is returned when a delete or update cannot be
	// performed because of dependent state, such as deleting a seat that
	// still has upcoming reservations.
	ErrConflict = errors.New("conflict")
)

const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlDeadlock       = 1213 // ER_LOCK_DEADLOCK
)

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isClaimRace reports whether a claim insert lost to a concurrent
// transaction.  InnoDB may pick the loser as a deadlock victim instead of
// raising a duplicate key when several inserts wait on the same key.
func isClaimRace(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == mysqlDuplicateEntry || me.Number == mysqlDeadlock)
}
