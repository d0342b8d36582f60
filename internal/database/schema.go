package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables owned by this service.  The reservations table
// carries the seat-uniqueness guarantee: active_seat is the seat label while
// a reservation is active and NULL once it is cancelled, so the unique key
// on (screening_id, active_seat) admits any number of cancelled rows but at
// most one active row per seat.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(255)  NOT NULL,
		description VARCHAR(2000) NOT NULL DEFAULT '',
		poster_url  VARCHAR(500)  NOT NULL DEFAULT '',
		genre       VARCHAR(50)   NOT NULL,
		created_at  DATETIME(6)   NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS screenings (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id    BIGINT UNSIGNED NOT NULL,
		show_time   DATETIME(6)     NOT NULL,
		total_seats INT             NOT NULL DEFAULT 100,
		price_cents BIGINT          NOT NULL DEFAULT 1000,
		created_at  DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		CONSTRAINT chk_screenings_seats CHECK (total_seats > 0),
		CONSTRAINT chk_screenings_price CHECK (price_cents >= 0),
		UNIQUE KEY uq_screenings_movie_time (movie_id, show_time),
		KEY idx_screenings_show_time (show_time),
		CONSTRAINT fk_screenings_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		screening_id BIGINT UNSIGNED NOT NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		seat_label   VARCHAR(10)     NOT NULL,
		status       VARCHAR(20)     NOT NULL DEFAULT 'active',
		created_at   DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		cancelled_at DATETIME(6)     NULL,
		active_seat  VARCHAR(10) GENERATED ALWAYS AS (IF(status = 'active', seat_label, NULL)) STORED,
		CONSTRAINT chk_reservations_status CHECK (status IN ('active', 'cancelled')),
		UNIQUE KEY uq_reservations_active_seat (screening_id, active_seat),
		KEY idx_reservations_user (user_id, id),
		KEY idx_reservations_screening_status (screening_id, status),
		CONSTRAINT fk_reservations_screening FOREIGN KEY (screening_id) REFERENCES screenings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  Statements are idempotent, so it is
// safe to call on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
