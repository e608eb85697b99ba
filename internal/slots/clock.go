package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultGranularityMinutes is the clinic-wide slot step.
const DefaultGranularityMinutes = 15

// ErrInvalidWindow indicates a misconfigured operating window.
var ErrInvalidWindow = errors.New("invalid operating window")

// TimeOfDay is a naive clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Minutes() int { return int(t) }

// At anchors the time of day on a calendar date, in the date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

// Generate returns the bookable instants of an operating window: open,
// open+granularity, ... up to and including close. When the span is not an
// exact multiple of the granularity the sequence stops at the latest value
// not past close. Pure function, safe for concurrent use.
func Generate(open, close TimeOfDay, granularityMinutes int) ([]TimeOfDay, error) {
	if granularityMinutes <= 0 {
		return nil, fmt.Errorf("%w: granularity %d", ErrInvalidWindow, granularityMinutes)
	}
	if open > close {
		return nil, fmt.Errorf("%w: open %s after close %s", ErrInvalidWindow, open, close)
	}

	out := make([]TimeOfDay, 0, (int(close-open)/granularityMinutes)+1)
	for cursor := open; cursor <= close; cursor += TimeOfDay(granularityMinutes) {
		out = append(out, cursor)
	}
	return out, nil
}
