package db

import (
	"database/sql"
	"fmt"
)

// The two unique keys below are load-bearing: uq_session_slot is what turns
// "overlap" into a row-existence check, and uq_reservation_session_start is
// the backstop when a writer bypasses the session row lock. The latter is a
// partial index: cancelled rows keep their timestamps but must not block
// rebooking the freed window.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS charging_sessions (
		id   INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id               VARCHAR(36) PRIMARY KEY,
		session_id       INTEGER NOT NULL REFERENCES charging_sessions(id) ON DELETE CASCADE,
		plate            VARCHAR(32) NOT NULL,
		plate_normalized VARCHAR(32) NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		status           VARCHAR(16) NOT NULL DEFAULT 'CONFIRMED',
		contact_email    VARCHAR(255),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_reservation_session_start
		ON reservations (session_id, start_time) WHERE status <> 'CANCELLED'`,
	`CREATE TABLE IF NOT EXISTS reservation_slots (
		id             BIGSERIAL PRIMARY KEY,
		reservation_id VARCHAR(36) NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		session_id     INTEGER NOT NULL REFERENCES charging_sessions(id),
		slot_start     TIMESTAMPTZ NOT NULL,
		CONSTRAINT uq_session_slot UNIQUE (session_id, slot_start)
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id            SERIAL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_plate_normalized ON reservations (plate_normalized)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_contact_email ON reservations (contact_email)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_start_time ON reservations (start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_reservation_slots_reservation_id ON reservation_slots (reservation_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(conn *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
