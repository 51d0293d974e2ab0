package schedule

import (
	"testing"
	"time"

	"ceramico/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WeeklyDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	sessions, err := Generate(start, "17:00", model.RecurrenceWeekly, 2)
	require.NoError(t, err)
	require.NotEmpty(t, sessions)

	// First session is the normalized start.
	assert.Equal(t, time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), sessions[0].SessionDate)

	end := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC).AddDate(0, 2, 0)
	for i, s := range sessions {
		assert.Equal(t, 17, s.SessionDate.Hour())
		assert.Equal(t, 0, s.SessionDate.Minute())
		assert.Equal(t, 0, s.BookedSpots)
		assert.NotEmpty(t, s.SessionID)
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, s.SessionDate.Sub(sessions[i-1].SessionDate))
		}
		assert.False(t, s.SessionDate.After(end), "session %d past window end", i)
	}

	// 2024-01-01 .. 2024-03-01 inclusive is 9 Mondays.
	assert.Len(t, sessions, 9)
}

func TestGenerate_WindowBoundaryInclusive(t *testing.T) {
	// Start + 1 month lands exactly on a monthly step: the boundary session
	// must be emitted (current <= end).
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	sessions, err := Generate(start, "10:00", model.RecurrenceMonthly, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	last := sessions[len(sessions)-1].SessionDate
	assert.Equal(t, time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC), last)
}

func TestGenerate_Biweekly(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	sessions, err := Generate(start, "18:30", model.RecurrenceBiweekly, 2)
	require.NoError(t, err)

	for i := 1; i < len(sessions); i++ {
		assert.Equal(t, 14*24*time.Hour, sessions[i].SessionDate.Sub(sessions[i-1].SessionDate))
	}
}

func TestGenerate_MonthlyUsesCalendarMonths(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	sessions, err := Generate(start, "11:00", model.RecurrenceMonthly, 3)
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	assert.Equal(t, time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), sessions[0].SessionDate)
	assert.Equal(t, time.Date(2024, 2, 15, 11, 0, 0, 0, time.UTC), sessions[1].SessionDate)
	assert.Equal(t, time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC), sessions[2].SessionDate)
	assert.Equal(t, time.Date(2024, 4, 15, 11, 0, 0, 0, time.UTC), sessions[3].SessionDate)
}

func TestGenerate_Deterministic(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	a, err := Generate(start, "17:00", model.RecurrenceWeekly, 2)
	require.NoError(t, err)
	b, err := Generate(start, "17:00", model.RecurrenceWeekly, 2)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.True(t, a[i].SessionDate.Equal(b[i].SessionDate))
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  time.Time
		clock  string
		cad    model.Recurrence
		months int
	}{
		{"zero start", time.Time{}, "17:00", model.RecurrenceWeekly, 2},
		{"bad clock", start, "25:00", model.RecurrenceWeekly, 2},
		{"empty clock", start, "", model.RecurrenceWeekly, 2},
		{"clock with seconds", start, "17:00:00", model.RecurrenceWeekly, 2},
		{"unknown cadence", start, "17:00", model.Recurrence("daily"), 2},
		{"zero window", start, "17:00", model.RecurrenceWeekly, 0},
		{"window too large", start, "17:00", model.RecurrenceWeekly, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, err := Generate(tt.start, tt.clock, tt.cad, tt.months)
			assert.Error(t, err)
			assert.Nil(t, sessions, "no partial generation on invalid input")
		})
	}
}
