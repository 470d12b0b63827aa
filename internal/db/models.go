package db

import (
	"time"

	"evcharging/internal/schedule"
)

type ChargingSession struct {
	ID   int
	Name string
}

type Reservation struct {
	ID              string
	SessionID       int
	Plate           string
	PlateNormalized string
	StartTime       time.Time
	EndTime         time.Time
	Status          schedule.Status
	ContactEmail    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ReservationSlot struct {
	ID            int64
	ReservationID string
	SessionID     int
	SlotStart     time.Time
}
