package model

import "time"

// AuditEntry is one recorded booking lifecycle action.
type AuditEntry struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	Action    string    `json:"action"` // booking.created, booking.canceled, booking.completed
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
