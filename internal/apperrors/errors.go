package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for charging sessions or reservations that do
// not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed reservation request: bad date or time
// format, a window off the slot grid, or end <= start. Always caller-fixable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// OverlapError reports that one or more requested slots are already booked
// on the target charging session. Safe to retry with a different window.
type OverlapError struct {
	SessionID int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("charging session %d already has a reservation in the requested time range", e.SessionID)
}

// PlateConflictError reports that the plate already holds a live reservation
// whose window intersects the requested one, on any session.
type PlateConflictError struct {
	Plate string
}

func (e *PlateConflictError) Error() string {
	return fmt.Sprintf("vehicle %s already has a reservation in an overlapping time range", e.Plate)
}
