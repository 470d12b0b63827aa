package entities

import (
	"time"

	"evcharging/internal/schedule"
)

// ReservationResponse presents a reservation in the business timezone: the
// calendar date plus HH:MM wall-clock bounds, with the status derived at
// read time.
type ReservationResponse struct {
	ID           string          `json:"id"`
	SessionID    int             `json:"sessionId"`
	Plate        string          `json:"plate"`
	Date         string          `json:"date"`
	StartTime    string          `json:"startTime"`
	EndTime      string          `json:"endTime"`
	Status       schedule.Status `json:"status"`
	ContactEmail string          `json:"contactEmail,omitempty"`
}

type SessionReservations struct {
	SessionID    int                   `json:"sessionId"`
	Name         string                `json:"name"`
	Reservations []ReservationResponse `json:"reservations"`
}

type SessionsResponse struct {
	Sessions []SessionReservations `json:"sessions"`
}

type PlateVerificationResponse struct {
	Valid                  bool                 `json:"valid"`
	Conflict               bool                 `json:"conflict"`
	Message                string               `json:"message"`
	ConflictingReservation *ReservationResponse `json:"conflictingReservation,omitempty"`
}

type PlateMatchResponse struct {
	Plate       string               `json:"plate"`
	Match       bool                 `json:"match"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}

type AdminLoginResponse struct {
	Token string            `json:"token"`
	Admin map[string]string `json:"admin"`
}

type BatteryStatusResponse struct {
	Percent   *float64   `json:"percent"`
	Voltage   *float64   `json:"voltage"`
	Timestamp *time.Time `json:"timestamp"`
}
