package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
//
// seat_slot_claims and user_day_claims carry the booking invariants: a
// reservation inserts one claim per hourly slot it covers (nine for a full
// day) plus one claim for its user and date, in the same transaction as
// the reservation row.  Their primary keys make a second Active booking of
// the same seat slot, or of the same user on the same day, fail with a
// duplicate-key error instead of relying on a prior read.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(120)    NOT NULL,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          ENUM('intern','admin') NOT NULL DEFAULT 'intern',
		is_active     TINYINT(1)      NOT NULL DEFAULT 1,
		created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		KEY idx_refresh_tokens_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		seat_number VARCHAR(32)     NOT NULL,
		row_label   VARCHAR(16)     NOT NULL,
		location    VARCHAR(120)    NOT NULL DEFAULT 'Main Hall',
		area        VARCHAR(120)    NOT NULL DEFAULT 'Floor 1',
		status      ENUM('Available','Unavailable') NOT NULL DEFAULT 'Available',
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seats_number (seat_number),
		KEY idx_seats_area (area, seat_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id      BIGINT UNSIGNED NOT NULL,
		seat_id      BIGINT UNSIGNED NOT NULL,
		date         DATE            NOT NULL,
		time_slot    VARCHAR(16)     NOT NULL,
		status       ENUM('Active','Cancelled') NOT NULL DEFAULT 'Active',
		reserved_at  DATETIME        NOT NULL,
		cancelled_at DATETIME        NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_reservations_user_date (user_id, date),
		KEY idx_reservations_seat_date_slot (seat_id, date, time_slot),
		KEY idx_reservations_date_status (date, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seat_slot_claims (
		seat_id        BIGINT UNSIGNED NOT NULL,
		date           DATE            NOT NULL,
		slot           VARCHAR(16)     NOT NULL,
		reservation_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (seat_id, date, slot),
		KEY idx_seat_slot_claims_reservation (reservation_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_day_claims (
		user_id        BIGINT UNSIGNED NOT NULL,
		date           DATE            NOT NULL,
		reservation_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (user_id, date),
		KEY idx_user_day_claims_reservation (reservation_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
