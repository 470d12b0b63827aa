package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveStatus(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name   string
		stored Status
		now    time.Time
		want   Status
	}{
		{"before start", StatusConfirmed, start.Add(-time.Second), StatusConfirmed},
		{"exactly at start", StatusConfirmed, start, StatusInProgress},
		{"mid window", StatusConfirmed, start.Add(30 * time.Minute), StatusInProgress},
		{"exactly at end", StatusConfirmed, end, StatusCompleted},
		{"after end", StatusConfirmed, end.Add(time.Hour), StatusCompleted},
		{"cancelled before start", StatusCancelled, start.Add(-time.Hour), StatusCancelled},
		{"cancelled mid window", StatusCancelled, start.Add(time.Minute), StatusCancelled},
		{"cancelled after end", StatusCancelled, end.Add(time.Hour), StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.stored, start, end, tt.now))
		})
	}
}
