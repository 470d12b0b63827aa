package repository

import (
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"evcharging/internal/apperrors"
	"evcharging/internal/db"
	"evcharging/internal/schedule"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB connects to the database named by TEST_DATABASE_URL and resets the
// reservation tables. Tests are skipped when the variable is unset so the
// unit suite stays runnable without Postgres.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping repository integration tests")
	}
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	require.NoError(t, db.EnsureSchema(conn))

	_, err = conn.Exec(`TRUNCATE reservation_slots, reservations, charging_sessions RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	sessions := NewSessionRepository(conn)
	require.NoError(t, sessions.EnsureBaseSessions([]string{"Session 1", "Session 2"}))

	t.Cleanup(func() { conn.Close() })
	return conn
}

func window(t *testing.T, startHour, startMin, endHour, endMin int) (time.Time, time.Time) {
	t.Helper()
	day := time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	end := day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute)
	return start, end
}

func TestCreateReservationPersistsSlots(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)
	start, end := window(t, 9, 0, 10, 0)

	res, err := repo.CreateReservation(CreateParams{
		SessionID:    1,
		Plate:        "11가 1111",
		StartTime:    start,
		EndTime:      end,
		ContactEmail: "Driver@Example.COM",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "11가1111", res.PlateNormalized)
	assert.Equal(t, "driver@example.com", res.ContactEmail)
	assert.Equal(t, schedule.StatusConfirmed, res.Status)

	var slotCount int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservation_slots WHERE reservation_id = $1`, res.ID).Scan(&slotCount))
	assert.Equal(t, 2, slotCount)
}

func TestCreateReservationOverlapSameSession(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "22나2222", StartTime: start, EndTime: end})
	require.NoError(t, err)

	start2, end2 := window(t, 9, 30, 10, 30)
	_, err = repo.CreateReservation(CreateParams{SessionID: 1, Plate: "33다3333", StartTime: start2, EndTime: end2})
	var overlapErr *apperrors.OverlapError
	require.ErrorAs(t, err, &overlapErr)
	assert.Equal(t, 1, overlapErr.SessionID)
}

func TestCreateReservationPlateConflictAcrossSessions(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "44라4444", StartTime: start, EndTime: end})
	require.NoError(t, err)

	start2, end2 := window(t, 9, 30, 10, 30)
	_, err = repo.CreateReservation(CreateParams{SessionID: 2, Plate: "44라 4444", StartTime: start2, EndTime: end2})
	var plateErr *apperrors.PlateConflictError
	require.ErrorAs(t, err, &plateErr)
}

func TestCreateReservationTouchingWindowsSucceed(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "55마5555", StartTime: start, EndTime: end})
	require.NoError(t, err)

	start2, end2 := window(t, 10, 0, 11, 0)
	_, err = repo.CreateReservation(CreateParams{SessionID: 1, Plate: "66바6666", StartTime: start2, EndTime: end2})
	require.NoError(t, err)
}

func TestCreateReservationUnknownSession(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 99, Plate: "77사7777", StartTime: start, EndTime: end})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConcurrentCreationExactlyOneWins(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)
	start, end := window(t, 14, 0, 15, 0)

	plates := []string{"88아8888", "99자9999"}
	errs := make([]error, len(plates))
	var wg sync.WaitGroup
	for i, plate := range plates {
		wg.Add(1)
		go func(i int, plate string) {
			defer wg.Done()
			_, errs[i] = repo.CreateReservation(CreateParams{
				SessionID: 1,
				Plate:     plate,
				StartTime: start,
				EndTime:   end,
			})
		}(i, plate)
	}
	wg.Wait()

	var succeeded, overlapped int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var overlapErr *apperrors.OverlapError
		if assert.ErrorAs(t, err, &overlapErr) {
			overlapped++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent attempt must win")
	assert.Equal(t, 1, overlapped, "the loser must observe an overlap error")

	var slotCount int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservation_slots WHERE session_id = 1`).Scan(&slotCount))
	assert.Equal(t, 2, slotCount, "no duplicate slot rows may survive")
}

func TestCancelFreesWindow(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	res, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "10차1010", StartTime: start, EndTime: end})
	require.NoError(t, err)

	require.NoError(t, repo.CancelReservation(res.ID))

	stored, err := repo.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCancelled, stored.Status)

	// The cancelled plate no longer blocks itself, and the slots are free.
	_, err = repo.CreateReservation(CreateParams{SessionID: 1, Plate: "20카2020", StartTime: start, EndTime: end})
	require.NoError(t, err)
}

func TestFindActiveByPlateAt(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 11, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "30타3030", StartTime: start, EndTime: end})
	require.NoError(t, err)

	res, err := repo.FindActiveByPlateAt("30타3030", start.Add(30*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, res)

	res, err = repo.FindActiveByPlateAt("30타3030", end)
	require.NoError(t, err)
	assert.Nil(t, res, "the window end is exclusive")

	res, err = repo.FindActiveByPlateAt("40파4040", start)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestDeleteReservationForOwner(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	res, err := repo.CreateReservation(CreateParams{
		SessionID:    1,
		Plate:        "50하5050",
		StartTime:    start,
		EndTime:      end,
		ContactEmail: "owner@example.com",
	})
	require.NoError(t, err)

	deleted, err := repo.DeleteReservationForOwner(res.ID, "other@example.com", "")
	require.NoError(t, err)
	assert.False(t, deleted, "a mismatched owner must not delete")

	deleted, err = repo.DeleteReservationForOwner(res.ID, "owner@example.com", "")
	require.NoError(t, err)
	assert.True(t, deleted)

	var slotCount int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservation_slots WHERE reservation_id = $1`, res.ID).Scan(&slotCount))
	assert.Zero(t, slotCount, "slot rows must cascade with the reservation")
}

func TestFindConflictingByPlateWindowless(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	res, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "70너7070", StartTime: start, EndTime: end})
	require.NoError(t, err)
	require.NoError(t, repo.CancelReservation(res.ID))

	// Without a window the lookup is a plain duplicate-plate check over every
	// reservation: even a cancelled booking counts.
	found, err := repo.FindConflictingByPlate("70너7070", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, res.ID, found.ID)

	found, err = repo.FindConflictingByPlate("80더8080", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindConflictingByPlateWindowed(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	res, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "90러9090", StartTime: start, EndTime: end})
	require.NoError(t, err)

	qStart, qEnd := window(t, 9, 30, 10, 30)
	found, err := repo.FindConflictingByPlate("90러9090", &qStart, &qEnd)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, res.ID, found.ID)

	// A touching window does not intersect.
	tStart, tEnd := window(t, 10, 0, 11, 0)
	found, err = repo.FindConflictingByPlate("90러9090", &tStart, &tEnd)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Once a window is given, cancelled rows stop counting.
	require.NoError(t, repo.CancelReservation(res.ID))
	found, err = repo.FindConflictingByPlate("90러9090", &qStart, &qEnd)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateReservationsBatchAllOrNothing(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	_, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "11로1111", StartTime: start, EndTime: end})
	require.NoError(t, err)

	// The first batch window is free; the second collides with the existing
	// booking, which must undo the whole batch.
	firstStart, firstEnd := window(t, 7, 0, 8, 0)
	secondStart, secondEnd := window(t, 9, 30, 10, 30)
	_, err = repo.CreateReservationsBatch([]CreateParams{
		{SessionID: 1, Plate: "22모2222", StartTime: firstStart, EndTime: firstEnd},
		{SessionID: 1, Plate: "22모2222", StartTime: secondStart, EndTime: secondEnd},
	})
	var overlapErr *apperrors.OverlapError
	require.ErrorAs(t, err, &overlapErr)

	var count int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservations WHERE plate_normalized = '22모2222'`).Scan(&count))
	assert.Zero(t, count, "a failed batch must leave no reservations behind")
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservation_slots WHERE session_id = 1`).Scan(&count))
	assert.Equal(t, 2, count, "only the pre-existing booking's slots may remain")
}

func TestBackfillUTCAddsMissingSlots(t *testing.T) {
	conn := testDB(t)
	repo := NewReservationRepository(conn)

	start, end := window(t, 9, 0, 10, 0)
	res, err := repo.CreateReservation(CreateParams{SessionID: 1, Plate: "60거6060", StartTime: start, EndTime: end})
	require.NoError(t, err)

	// Simulate a legacy row imported without its slot rows.
	_, err = conn.Exec(`DELETE FROM reservation_slots WHERE reservation_id = $1`, res.ID)
	require.NoError(t, err)

	result, err := repo.BackfillUTC()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 2, result.SlotsAdded)
	assert.Zero(t, result.SkippedRows)

	var slotCount int
	require.NoError(t, conn.QueryRow(
		`SELECT COUNT(*) FROM reservation_slots WHERE reservation_id = $1`, res.ID).Scan(&slotCount))
	assert.Equal(t, 2, slotCount)
}
