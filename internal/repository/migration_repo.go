package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"evcharging/internal/schedule"
	"evcharging/internal/timeutil"
)

// BackfillResult summarizes one startup backfill pass.
type BackfillResult struct {
	Checked     int
	Updated     int
	SlotsAdded  int
	SkippedRows int
}

// BackfillUTC walks every stored reservation, normalizes its timestamps to
// UTC and re-derives any missing slot rows. Rows imported from the legacy
// store may carry zone-less timestamps or lack slot rows entirely. A row
// whose normalized start would collide with another reservation's start on
// the same session is skipped and counted, never fatal: the next operator
// pass resolves it by hand. Under the current schema that skip cannot fire,
// since timestamptz values scan back in UTC already and the partial unique
// index forbids two live rows sharing a start; it guards rows imported from
// stores without either property.
func (r *ReservationRepository) BackfillUTC() (BackfillResult, error) {
	var result BackfillResult

	tx, err := r.DB.Begin()
	if err != nil {
		return result, fmt.Errorf("begin backfill transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT ` + reservationColumns + ` FROM reservations ORDER BY created_at`)
	if err != nil {
		return result, fmt.Errorf("query reservations for backfill: %w", err)
	}
	reservations, err := collectReservations(rows)
	if err != nil {
		return result, err
	}

	type startKey struct {
		sessionID int
		start     time.Time
	}
	seen := make(map[startKey]string, len(reservations))

	for _, res := range reservations {
		result.Checked++
		newStart := timeutil.EnsureUTC(res.StartTime)
		newEnd := timeutil.EnsureUTC(res.EndTime)

		// Cancelled rows hold no slots and sit outside the start-time
		// uniqueness key, so only live rows can collide.
		if res.Status != schedule.StatusCancelled {
			key := startKey{sessionID: res.SessionID, start: newStart}
			if holder, dup := seen[key]; dup && holder != res.ID {
				result.SkippedRows++
				log.Printf("Backfill: skipping reservation %s, normalized start collides with %s on session %d", res.ID, holder, res.SessionID)
				continue
			}
			var otherID string
			err := tx.QueryRow(
				`SELECT id FROM reservations
				 WHERE id <> $1 AND session_id = $2 AND start_time = $3 AND status <> 'CANCELLED'
				 LIMIT 1`,
				res.ID, res.SessionID, newStart,
			).Scan(&otherID)
			if err == nil {
				result.SkippedRows++
				log.Printf("Backfill: skipping reservation %s, normalized start collides with %s on session %d", res.ID, otherID, res.SessionID)
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return result, fmt.Errorf("check backfill collision for %s: %w", res.ID, err)
			}
			seen[key] = res.ID
		}

		if !newStart.Equal(res.StartTime) || !newEnd.Equal(res.EndTime) {
			_, err := tx.Exec(
				`UPDATE reservations SET start_time = $1, end_time = $2, updated_at = NOW() WHERE id = $3`,
				newStart, newEnd, res.ID,
			)
			if err != nil {
				return result, fmt.Errorf("backfill reservation %s: %w", res.ID, err)
			}
			result.Updated++
		}

		if res.Status == schedule.StatusCancelled {
			continue
		}
		for _, slotStart := range schedule.SlotStarts(newStart, newEnd) {
			tag, err := tx.Exec(`
				INSERT INTO reservation_slots (reservation_id, session_id, slot_start)
				VALUES ($1, $2, $3)
				ON CONFLICT (session_id, slot_start) DO NOTHING`,
				res.ID, res.SessionID, slotStart,
			)
			if err != nil {
				return result, fmt.Errorf("backfill slots for reservation %s: %w", res.ID, err)
			}
			if n, err := tag.RowsAffected(); err == nil && n > 0 {
				result.SlotsAdded += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit backfill: %w", err)
	}
	return result, nil
}
