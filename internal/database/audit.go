package database

import (
	"context"
	"time"

	"frontdesk/internal/model"
)

// RecordAudit appends a booking action to the audit trail.
func (db *DB) RecordAudit(ctx context.Context, bookingID int64, action, details string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO booking_audit (booking_id, action, details, created_at) VALUES (?, ?, ?, ?)`,
		bookingID, action, details, time.Now(),
	)
	return err
}

// ListAuditForBooking returns the audit trail of one booking, oldest first.
func (db *DB) ListAuditForBooking(ctx context.Context, bookingID int64) ([]model.AuditEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_id, action, details, created_at
		FROM booking_audit WHERE booking_id = ? ORDER BY id`,
		bookingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
