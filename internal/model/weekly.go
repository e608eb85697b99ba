package model

import "time"

// Assignment periods for rotating rooms.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

// WeeklyAssignment is one cell of the rotating-room grid: which specialty
// occupies a room on a given weekday period. Reference data, edited outside
// this service; absence means the period is unassigned.
type WeeklyAssignment struct {
	ID        int64        `json:"id"`
	RoomID    int64        `json:"room_id"`
	Weekday   time.Weekday `json:"weekday"` // Monday..Friday
	Period    string       `json:"period"`  // morning | afternoon
	Label     string       `json:"label"`   // specialty or team name
	StartTime string       `json:"start_time,omitempty"` // "08:00", overrides period default
	EndTime   string       `json:"end_time,omitempty"`   // "12:00"
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsWorkday reports whether the grid covers the weekday at all.
func IsWorkday(d time.Weekday) bool {
	return d >= time.Monday && d <= time.Friday
}
