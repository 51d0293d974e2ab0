// Package schedule derives the dated session instances of a recurring
// workshop. Generation happens once, at workshop creation time; the resulting
// sessions are persisted on the workshop document.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"ceramico/pkg/model"

	"github.com/google/uuid"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Generate produces the ordered session sequence for a workshop starting at
// start, recurring at the given cadence, covering windowMonths calendar
// months from the normalized start (boundary inclusive). The time-of-day of
// every session is fixed from clock ("HH:MM") in start's location. Calendar
// arithmetic is local; DST transitions are not special-cased.
//
// Any malformed input fails before a single session is emitted.
func Generate(start time.Time, clock string, cadence model.Recurrence, windowMonths int) ([]model.Session, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}

	hour, minute, err := parseClock(clock)
	if err != nil {
		return nil, err
	}

	step, err := stepFor(cadence)
	if err != nil {
		return nil, err
	}

	if windowMonths < 1 || windowMonths > 12 {
		return nil, fmt.Errorf("window months must be between 1 and 12, got %d", windowMonths)
	}

	current := time.Date(start.Year(), start.Month(), start.Day(), hour, minute, 0, 0, start.Location())
	end := current.AddDate(0, windowMonths, 0)

	var sessions []model.Session
	for !current.After(end) {
		sessions = append(sessions, model.Session{
			SessionID:   uuid.NewString(),
			SessionDate: current,
			BookedSpots: 0,
		})
		current = step(current)
	}

	return sessions, nil
}

func parseClock(clock string) (hour, minute int, err error) {
	m := clockRegex.FindStringSubmatch(clock)
	if m == nil {
		return 0, 0, fmt.Errorf("recurring time must be in HH:MM format (00:00-23:59), got %q", clock)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

func stepFor(cadence model.Recurrence) (func(time.Time) time.Time, error) {
	switch cadence {
	case model.RecurrenceWeekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }, nil
	case model.RecurrenceBiweekly:
		return func(t time.Time) time.Time { return t.AddDate(0, 0, 14) }, nil
	case model.RecurrenceMonthly:
		return func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, nil
	default:
		return nil, fmt.Errorf("unknown recurrence %q", cadence)
	}
}
