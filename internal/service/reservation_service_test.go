package service

import (
	"database/sql"
	"os"
	"testing"

	"evcharging/internal/apperrors"
	"evcharging/internal/db"
	"evcharging/internal/entities"
	"evcharging/internal/repository"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservationsBatchRejectsOverlappingStarts(t *testing.T) {
	svc := NewReservationService(nil, nil, nil)

	// One-hour windows starting 30 minutes apart overlap each other.
	_, err := svc.CreateReservationsBatch(entities.ReservationBatchRequest{
		SessionID:  1,
		Plate:      "12가3456",
		Date:       "2024-06-01",
		StartTimes: []string{"09:00", "09:30"},
	})
	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateReservationsBatch(entities.ReservationBatchRequest{
		SessionID:  1,
		Plate:      "12가3456",
		Date:       "2024-06-01",
		StartTimes: []string{"09:00", "09:00"},
	})
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.CreateReservationsBatch(entities.ReservationBatchRequest{
		SessionID:  1,
		Plate:      "12가3456",
		Date:       "2024-06-01",
		StartTimes: []string{"09:10"},
	})
	require.ErrorAs(t, err, &validationErr, "off-grid starts must be rejected")
}

// serviceTestDB wires a ReservationService against the database named by
// TEST_DATABASE_URL, skipping when it is unset.
func serviceTestDB(t *testing.T) *ReservationService {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping service integration tests")
	}
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	require.NoError(t, db.EnsureSchema(conn))

	_, err = conn.Exec(`TRUNCATE reservation_slots, reservations, charging_sessions RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	sessions := repository.NewSessionRepository(conn)
	require.NoError(t, sessions.EnsureBaseSessions([]string{"Session 1", "Session 2"}))

	t.Cleanup(func() { conn.Close() })
	return NewReservationService(repository.NewReservationRepository(conn), sessions, NewSenderService("", "", ""))
}

func TestVerifyPlate(t *testing.T) {
	svc := serviceTestDB(t)

	_, err := svc.CreateReservation(entities.ReservationRequest{
		SessionID: 1,
		Plate:     "12가3456",
		Date:      "2030-03-10",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.NoError(t, err)

	// Without a window the check is a plain duplicate-plate lookup; spacing
	// in the queried plate must not matter.
	resp, err := svc.VerifyPlate(entities.PlateVerificationRequest{Plate: "12가 3456"})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.True(t, resp.Conflict)
	require.NotNil(t, resp.ConflictingReservation)
	assert.Equal(t, 1, resp.ConflictingReservation.SessionID)

	// An intersecting window conflicts.
	resp, err = svc.VerifyPlate(entities.PlateVerificationRequest{
		Plate: "12가3456", Date: "2030-03-10", StartTime: "09:30", EndTime: "10:30",
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.True(t, resp.Conflict)

	// A touching window does not.
	resp, err = svc.VerifyPlate(entities.PlateVerificationRequest{
		Plate: "12가3456", Date: "2030-03-10", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.Conflict)

	// An unseen plate is available.
	resp, err = svc.VerifyPlate(entities.PlateVerificationRequest{Plate: "98주9898"})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.Conflict)
	assert.Nil(t, resp.ConflictingReservation)
}
