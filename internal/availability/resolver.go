package availability

import (
	"time"

	"frontdesk/internal/model"
	"frontdesk/internal/schedule"
	"frontdesk/internal/slots"
)

// Status of a single slot. Exactly one status applies per slot.
type Status string

const (
	StatusFree        Status = "free"
	StatusOccupied    Status = "occupied"
	StatusPast        Status = "past"
	StatusUnavailable Status = "unavailable" // outside every assigned window
)

// Slot is a derived value, recomputed on every query and never stored.
type Slot struct {
	Time   slots.TimeOfDay `json:"-"`
	Label  string          `json:"label,omitempty"`
	Status Status          `json:"status"`
}

// Classify walks the room's operating span and assigns each slot instant
// exactly one status. Precedence per slot: unavailable (no assigned window)
// over past over occupied over free. Depends only on its inputs; "now" is
// explicit so the result is reproducible.
func Classify(day *schedule.DaySchedule, granularityMinutes int, bookings []model.Booking, now time.Time) ([]Slot, error) {
	if day.Closed() {
		return nil, nil
	}
	if granularityMinutes <= 0 {
		granularityMinutes = slots.DefaultGranularityMinutes
	}

	instants, err := slots.Generate(day.Open, day.Close, granularityMinutes)
	if err != nil {
		return nil, err
	}

	out := make([]Slot, 0, len(instants))
	for _, t := range instants {
		window, assigned := day.WindowAt(t)
		if !assigned {
			out = append(out, Slot{Time: t, Status: StatusUnavailable})
			continue
		}

		slot := Slot{Time: t, Label: window.Label}
		at := t.At(day.Date)
		switch {
		case at.Before(now):
			// Elapsed slots are permanently non-bookable; no overlap check.
			slot.Status = StatusPast
		case covered(bookings, at):
			slot.Status = StatusOccupied
		default:
			slot.Status = StatusFree
		}
		out = append(out, slot)
	}
	return out, nil
}

// covered short-circuits on the first active booking containing the
// instant; the ledger invariant guarantees at most one can.
func covered(bookings []model.Booking, at time.Time) bool {
	for i := range bookings {
		if bookings[i].IsActive() && bookings[i].Covers(at) {
			return true
		}
	}
	return false
}
