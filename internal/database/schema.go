package database

import (
	"context"
	"database/sql"
)

// Schema statements executed at startup. Each statement is idempotent so
// restarting the server against an existing database is safe.
//
// booking_line_items carries a uniqueness constraint on seat_id: a seat can
// appear in at most one line item at a time. Cancellation deletes the
// booking's line items (releasing the constraint) while the booking row
// itself is kept for history.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name          VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ticket_types (
		id    BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name  VARCHAR(100) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_ticket_types_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS seats (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		ticket_type_id BIGINT UNSIGNED NOT NULL,
		is_available   TINYINT(1) NOT NULL DEFAULT 1,
		PRIMARY KEY (id),
		KEY idx_seats_type_available (ticket_type_id, is_available),
		CONSTRAINT fk_seats_ticket_type FOREIGN KEY (ticket_type_id) REFERENCES ticket_types (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		status     VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (id),
		KEY idx_bookings_user (user_id),
		CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booking_line_items (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		booking_id     BIGINT UNSIGNED NOT NULL,
		seat_id        BIGINT UNSIGNED NOT NULL,
		ticket_type_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_line_items_seat (seat_id),
		KEY idx_line_items_booking (booking_id),
		CONSTRAINT fk_line_items_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE,
		CONSTRAINT fk_line_items_seat FOREIGN KEY (seat_id) REFERENCES seats (id),
		CONSTRAINT fk_line_items_ticket_type FOREIGN KEY (ticket_type_id) REFERENCES ticket_types (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates all tables used by the service if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
