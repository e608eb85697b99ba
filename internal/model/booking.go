package model

import "time"

// Booking statuses. Canceled bookings are kept for history but no longer
// occupy their interval.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

type Booking struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"` // external UUID
	RoomID          int64     `json:"room_id"`
	RoomCode        string    `json:"room_code,omitempty"`
	PatientID       int64     `json:"patient_id"`
	DoctorID        int64     `json:"doctor_id"`
	ProcedureID     int64     `json:"procedure_id"`
	Specialty       string    `json:"specialty,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EndTime is the exclusive end of the occupied interval.
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

func (b *Booking) Duration() time.Duration {
	return time.Duration(b.DurationMinutes) * time.Minute
}

// IsActive reports whether the booking still occupies its interval.
func (b *Booking) IsActive() bool {
	return b.Status == StatusScheduled || b.Status == StatusCompleted
}

// Covers reports whether instant t falls inside [start, start+duration).
func (b *Booking) Covers(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime())
}

// OverlapsWith reports whether two half-open intervals intersect.
func (b *Booking) OverlapsWith(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime())
}
