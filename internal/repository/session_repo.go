package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"evcharging/internal/apperrors"
	"evcharging/internal/db"
)

type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(conn *sql.DB) *SessionRepository {
	return &SessionRepository{DB: conn}
}

func (r *SessionRepository) ListSessions() ([]db.ChargingSession, error) {
	rows, err := r.DB.Query(`SELECT id, name FROM charging_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query charging sessions: %w", err)
	}
	defer rows.Close()

	var sessions []db.ChargingSession
	for rows.Next() {
		var cs db.ChargingSession
		if err := rows.Scan(&cs.ID, &cs.Name); err != nil {
			return nil, fmt.Errorf("scan charging session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate charging sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) GetSession(id int) (*db.ChargingSession, error) {
	var cs db.ChargingSession
	err := r.DB.QueryRow(`SELECT id, name FROM charging_sessions WHERE id = $1`, id).Scan(&cs.ID, &cs.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("charging session %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query charging session: %w", err)
	}
	return &cs, nil
}

// EnsureBaseSessions seeds the charging sessions with stable sequential ids.
// Existing rows are left alone.
func (r *SessionRepository) EnsureBaseSessions(names []string) error {
	var count int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM charging_sessions`).Scan(&count); err != nil {
		return fmt.Errorf("count charging sessions: %w", err)
	}
	if count >= len(names) {
		return nil
	}
	for idx, name := range names {
		_, err := r.DB.Exec(
			`INSERT INTO charging_sessions (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			idx+1, name,
		)
		if err != nil {
			return fmt.Errorf("seed charging session %q: %w", name, err)
		}
	}
	return nil
}
