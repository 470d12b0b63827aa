package service

import (
	"time"

	"evcharging/internal/apperrors"
	"evcharging/internal/schedule"
	"evcharging/internal/timeutil"
)

// buildWindow combines a calendar date with HH:MM wall-clock bounds in the
// business timezone and returns the UTC window. An end time of 00:00 that
// does not land after the start rolls to the next calendar day; any other
// inverted window is rejected. Both bounds must sit on the 30-minute grid.
func buildWindow(dateStr, startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	startLocal, endLocal, err := combineWindow(dateStr, startStr, endStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !schedule.OnSlotGrid(startLocal) || !schedule.OnSlotGrid(endLocal) {
		return time.Time{}, time.Time{}, apperrors.Validation("reservations must start and end on %d-minute slot boundaries", schedule.SlotIntervalMinutes)
	}
	if int(endLocal.Sub(startLocal).Minutes())%schedule.SlotIntervalMinutes != 0 {
		return time.Time{}, time.Time{}, apperrors.Validation("reservation length must be a multiple of %d minutes", schedule.SlotIntervalMinutes)
	}
	return startLocal.UTC(), endLocal.UTC(), nil
}

// combineWindow applies date+time combination and the midnight rollover rule
// without grid validation. Plate verification uses it directly so that free
// windows can be checked against arbitrary bounds.
func combineWindow(dateStr, startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	date, err := timeutil.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("%v", err)
	}
	sh, sm, err := timeutil.ParseClock(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("%v", err)
	}
	eh, em, err := timeutil.ParseClock(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.Validation("%v", err)
	}

	startLocal := time.Date(date.Year(), date.Month(), date.Day(), sh, sm, 0, 0, loc)
	endLocal := time.Date(date.Year(), date.Month(), date.Day(), eh, em, 0, 0, loc)
	if !endLocal.After(startLocal) && eh == 0 && em == 0 {
		endLocal = endLocal.AddDate(0, 0, 1)
	}
	if !endLocal.After(startLocal) {
		return time.Time{}, time.Time{}, apperrors.Validation("end time must be after start time")
	}
	return startLocal, endLocal, nil
}
