package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"evcharging/internal/apperrors"
	"evcharging/internal/db"
	"evcharging/internal/schedule"
	"evcharging/internal/timeutil"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const reservationColumns = `id, session_id, plate, plate_normalized, start_time, end_time, status, contact_email, created_at, updated_at`

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(conn *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: conn}
}

// CreateParams carries one reservation creation attempt. Times must already
// be absolute instants; the repository normalizes them to UTC before any
// check or insert.
type CreateParams struct {
	SessionID    int
	Plate        string
	StartTime    time.Time
	EndTime      time.Time
	ContactEmail string
}

// CreateReservation books one window. The whole attempt runs in a single
// transaction: the session row lock is taken first and held until commit or
// rollback, then the slot-overlap and plate-conflict guards run, then the
// reservation and its slot rows are inserted atomically. A uniqueness
// violation that slips past the guards is translated to an OverlapError.
func (r *ReservationRepository) CreateReservation(p CreateParams) (*db.Reservation, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	res, err := createInTx(tx, p)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, translateUniqueViolation(err, p.SessionID)
	}
	return res, nil
}

// CreateReservationsBatch books every window or none: the first failure rolls
// the whole transaction back.
func (r *ReservationRepository) CreateReservationsBatch(params []CreateParams) ([]*db.Reservation, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	created := make([]*db.Reservation, 0, len(params))
	for _, p := range params {
		res, err := createInTx(tx, p)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		created = append(created, res)
	}
	if err := tx.Commit(); err != nil {
		if len(params) > 0 {
			return nil, translateUniqueViolation(err, params[0].SessionID)
		}
		return nil, err
	}
	return created, nil
}

func createInTx(tx *sql.Tx, p CreateParams) (*db.Reservation, error) {
	if err := lockSession(tx, p.SessionID); err != nil {
		return nil, err
	}

	start := timeutil.EnsureUTC(p.StartTime)
	end := timeutil.EnsureUTC(p.EndTime)
	if !end.After(start) {
		return nil, apperrors.Validation("end time must be after start time")
	}

	slotStarts := schedule.SlotStarts(start, end)
	if len(slotStarts) == 0 {
		return nil, apperrors.Validation("reservation must cover at least one %d-minute slot", schedule.SlotIntervalMinutes)
	}

	plateNorm := schedule.NormalizePlate(p.Plate)
	if plateNorm == "" {
		return nil, apperrors.Validation("plate must not be empty")
	}

	if err := ensureNoOverlap(tx, p.SessionID, slotStarts); err != nil {
		return nil, err
	}
	if err := lockPlate(tx, plateNorm); err != nil {
		return nil, err
	}
	if err := ensureNoPlateConflict(tx, plateNorm, start, end); err != nil {
		return nil, err
	}

	res := &db.Reservation{
		ID:              uuid.NewString(),
		SessionID:       p.SessionID,
		Plate:           strings.TrimSpace(p.Plate),
		PlateNormalized: plateNorm,
		StartTime:       start,
		EndTime:         end,
		Status:          schedule.StatusConfirmed,
		ContactEmail:    strings.ToLower(strings.TrimSpace(p.ContactEmail)),
	}

	insert := `
		INSERT INTO reservations (id, session_id, plate, plate_normalized, start_time, end_time, status, contact_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	err := tx.QueryRow(insert,
		res.ID, res.SessionID, res.Plate, res.PlateNormalized,
		res.StartTime, res.EndTime, res.Status, nullableString(res.ContactEmail),
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, translateUniqueViolation(err, p.SessionID)
	}

	for _, slotStart := range slotStarts {
		_, err := tx.Exec(
			`INSERT INTO reservation_slots (reservation_id, session_id, slot_start) VALUES ($1, $2, $3)`,
			res.ID, p.SessionID, slotStart,
		)
		if err != nil {
			return nil, translateUniqueViolation(err, p.SessionID)
		}
	}
	return res, nil
}

// lockSession takes the row-level lock for the charging session. Every
// creation attempt on the same session serializes here until the enclosing
// transaction commits or rolls back.
func lockSession(tx *sql.Tx, sessionID int) error {
	var id int
	err := tx.QueryRow(`SELECT id FROM charging_sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("charging session %d: %w", sessionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock charging session %d: %w", sessionID, err)
	}
	return nil
}

// lockPlate serializes same-plate attempts across sessions. A FOR UPDATE
// select alone locks nothing when the plate has no rows yet, so two attempts
// on different sessions could both pass the conflict check; the
// transaction-scoped advisory lock closes that gap. Always taken after the
// session lock so lock ordering stays consistent.
func lockPlate(tx *sql.Tx, plateNormalized string) error {
	if _, err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext($1))`, plateNormalized); err != nil {
		return fmt.Errorf("lock plate %s: %w", plateNormalized, err)
	}
	return nil
}

func ensureNoOverlap(tx *sql.Tx, sessionID int, slotStarts []time.Time) error {
	var exists bool
	err := tx.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM reservation_slots WHERE session_id = $1 AND slot_start = ANY($2))`,
		sessionID, pq.Array(slotStarts),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check slot overlap: %w", err)
	}
	if exists {
		return &apperrors.OverlapError{SessionID: sessionID}
	}
	return nil
}

func ensureNoPlateConflict(tx *sql.Tx, plateNormalized string, start, end time.Time) error {
	var id string
	err := tx.QueryRow(`
		SELECT id FROM reservations
		WHERE plate_normalized = $1 AND status <> 'CANCELLED'
		  AND start_time < $3 AND end_time > $2
		LIMIT 1
		FOR UPDATE`,
		plateNormalized, start, end,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check plate conflict: %w", err)
	}
	return &apperrors.PlateConflictError{Plate: plateNormalized}
}

// translateUniqueViolation maps a storage-level uniqueness violation on the
// slot or start-time keys to the domain overlap error. The constraint is the
// ultimate authority: a writer that never took the session lock still cannot
// double-book, it just finds out here.
func translateUniqueViolation(err error, sessionID int) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return &apperrors.OverlapError{SessionID: sessionID}
	}
	return err
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*db.Reservation, error) {
	var res db.Reservation
	var contact sql.NullString
	err := row.Scan(
		&res.ID, &res.SessionID, &res.Plate, &res.PlateNormalized,
		&res.StartTime, &res.EndTime, &res.Status, &contact,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.ContactEmail = contact.String
	res.StartTime = timeutil.EnsureUTC(res.StartTime)
	res.EndTime = timeutil.EnsureUTC(res.EndTime)
	res.CreatedAt = timeutil.EnsureUTC(res.CreatedAt)
	res.UpdatedAt = timeutil.EnsureUTC(res.UpdatedAt)
	return &res, nil
}

func collectReservations(rows *sql.Rows) ([]*db.Reservation, error) {
	defer rows.Close()
	var reservations []*db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

// GetReservation returns one reservation by id.
func (r *ReservationRepository) GetReservation(id string) (*db.Reservation, error) {
	row := r.DB.QueryRow(`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return res, nil
}

// ReservationsBySession returns every reservation on a session, earliest
// first.
func (r *ReservationRepository) ReservationsBySession(sessionID int) ([]*db.Reservation, error) {
	rows, err := r.DB.Query(
		`SELECT `+reservationColumns+` FROM reservations WHERE session_id = $1 ORDER BY start_time`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations by session: %w", err)
	}
	return collectReservations(rows)
}

// ReservationsBySessionAndDay returns the reservations starting within
// [dayStart, dayEnd) on a session, earliest first.
func (r *ReservationRepository) ReservationsBySessionAndDay(sessionID int, dayStart, dayEnd time.Time) ([]*db.Reservation, error) {
	rows, err := r.DB.Query(
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE session_id = $1 AND start_time >= $2 AND start_time < $3
		 ORDER BY start_time`,
		sessionID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations by session and day: %w", err)
	}
	return collectReservations(rows)
}

// ReservationsForUser returns reservations matching the contact email and/or
// normalized plate, newest first. At least one filter must be set.
func (r *ReservationRepository) ReservationsForUser(email, plateNormalized string) ([]*db.Reservation, error) {
	if email == "" && plateNormalized == "" {
		return nil, apperrors.Validation("either email or plate must be provided")
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	var args []any
	if email != "" {
		args = append(args, strings.ToLower(email))
		query += fmt.Sprintf(" AND LOWER(contact_email) = $%d", len(args))
	}
	if plateNormalized != "" {
		args = append(args, plateNormalized)
		query += fmt.Sprintf(" AND plate_normalized = $%d", len(args))
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations for user: %w", err)
	}
	return collectReservations(rows)
}

// FindConflictingByPlate returns the most recent reservation for the plate.
// With a window it restricts to live reservations intersecting [start, end);
// without one it is a plain duplicate-plate lookup over all reservations.
// Returns nil when nothing matches.
func (r *ReservationRepository) FindConflictingByPlate(plateNormalized string, start, end *time.Time) (*db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE plate_normalized = $1`
	args := []any{plateNormalized}
	if start != nil && end != nil {
		args = append(args, timeutil.EnsureUTC(*start), timeutil.EnsureUTC(*end))
		query += ` AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2`
	}
	query += ` ORDER BY start_time DESC LIMIT 1`

	res, err := scanReservation(r.DB.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query conflicting reservation: %w", err)
	}
	return res, nil
}

// FindActiveByPlateAt returns the live reservation whose window contains the
// instant, earliest start first as tie-break. Returns nil when there is none.
func (r *ReservationRepository) FindActiveByPlateAt(plateNormalized string, at time.Time) (*db.Reservation, error) {
	moment := timeutil.EnsureUTC(at)
	res, err := scanReservation(r.DB.QueryRow(`
		SELECT `+reservationColumns+` FROM reservations
		WHERE plate_normalized = $1 AND status <> 'CANCELLED'
		  AND start_time <= $2 AND end_time > $2
		ORDER BY start_time ASC
		LIMIT 1`,
		plateNormalized, moment,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active reservation: %w", err)
	}
	return res, nil
}

// DeleteReservation removes a reservation and, through the cascade, its slot
// rows. Reports whether a row was deleted.
func (r *ReservationRepository) DeleteReservation(id string) (bool, error) {
	result, err := r.DB.Exec(`DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteReservationForOwner removes a reservation only when it matches the
// caller's contact email and/or normalized plate.
func (r *ReservationRepository) DeleteReservationForOwner(id, email, plateNormalized string) (bool, error) {
	if email == "" && plateNormalized == "" {
		return false, apperrors.Validation("either email or plate must be provided")
	}
	query := `DELETE FROM reservations WHERE id = $1`
	args := []any{id}
	if email != "" {
		args = append(args, strings.ToLower(email))
		query += fmt.Sprintf(" AND LOWER(contact_email) = $%d", len(args))
	}
	if plateNormalized != "" {
		args = append(args, plateNormalized)
		query += fmt.Sprintf(" AND plate_normalized = $%d", len(args))
	}
	result, err := r.DB.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("delete reservation for owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CancelReservation marks a reservation CANCELLED and frees its slot rows so
// the window can be rebooked. CANCELLED is the only status ever persisted as
// an override.
func (r *ReservationRepository) CancelReservation(id string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	result, err := tx.Exec(
		`UPDATE reservations SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("cancel reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return fmt.Errorf("reservation %s: %w", id, apperrors.ErrNotFound)
	}
	if _, err := tx.Exec(`DELETE FROM reservation_slots WHERE reservation_id = $1`, id); err != nil {
		tx.Rollback()
		return fmt.Errorf("release reservation slots: %w", err)
	}
	return tx.Commit()
}

// DeleteReservationsEndedBefore purges reservations whose window ended before
// the cutoff. Used by the retention job.
func (r *ReservationRepository) DeleteReservationsEndedBefore(cutoff time.Time) (int64, error) {
	result, err := r.DB.Exec(`DELETE FROM reservations WHERE end_time < $1`, timeutil.EnsureUTC(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge reservations: %w", err)
	}
	return result.RowsAffected()
}
