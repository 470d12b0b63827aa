package schedule

import "time"

// Status is the presentational state of a reservation.
type Status string

const (
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// ResolveStatus derives the observable status of a reservation from its
// stored status, its window and the current instant. Only CANCELLED is ever
// trusted from storage; the other states follow from the clock so that time
// advancing alone changes what a reader observes.
func ResolveStatus(stored Status, start, end, now time.Time) Status {
	if stored == StatusCancelled {
		return StatusCancelled
	}
	if now.Before(start) {
		return StatusConfirmed
	}
	if now.Before(end) {
		return StatusInProgress
	}
	return StatusCompleted
}
