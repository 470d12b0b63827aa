package schedule

import "time"

// SlotIntervalMinutes is the fixed width of a reservation slot.
const SlotIntervalMinutes = 30

// SlotInterval is the slot width as a duration.
const SlotInterval = SlotIntervalMinutes * time.Minute

// SlotStarts returns the slot start instants covering [start, end), spaced
// SlotInterval apart. The sequence is empty when end <= start. Callers must
// validate grid alignment and that the duration is a whole number of slots
// before persisting anything derived from it.
func SlotStarts(start, end time.Time) []time.Time {
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return nil
	}
	var slots []time.Time
	for cur := start; cur.Before(end); cur = cur.Add(SlotInterval) {
		slots = append(slots, cur)
	}
	return slots
}

// OnSlotGrid reports whether t lands exactly on the 30-minute wall-clock grid.
func OnSlotGrid(t time.Time) bool {
	return (t.Minute() == 0 || t.Minute() == SlotIntervalMinutes) && t.Second() == 0 && t.Nanosecond() == 0
}

// Overlaps reports whether the half-open intervals [start1, end1) and
// [start2, end2) intersect. Touching endpoints do not overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}
