package database

import (
	"context"
	"database/sql"
	"time"

	"frontdesk/internal/model"
)

const bookingColumns = `id, reference, room_id, patient_id, doctor_id, procedure_id,
	specialty, start_time, duration_minutes, status, notes, created_at, updated_at`

// GetBooking returns the booking or nil when absent.
func (db *DB) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBookingRow(row)
}

// GetBookingByReference looks a booking up by its UUID reference.
func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE reference = ?`, reference)
	return scanBookingRow(row)
}

// ListActiveByRoomDate returns non-canceled bookings for a room on a
// calendar date, ordered by start time.
func (db *DB) ListActiveByRoomDate(ctx context.Context, roomID int64, date time.Time) ([]model.Booking, error) {
	start, end := dayBounds(date)
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND start_time >= ? AND start_time < ?
		AND status != ?
		ORDER BY start_time`,
		roomID, start, end, model.StatusCanceled,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListActiveByDate returns all non-canceled bookings on a date across rooms.
func (db *DB) ListActiveByDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	start, end := dayBounds(date)
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.reference, b.room_id, b.patient_id, b.doctor_id, b.procedure_id,
		       b.specialty, b.start_time, b.duration_minutes, b.status, b.notes,
		       b.created_at, b.updated_at
		FROM bookings b
		WHERE b.start_time >= ? AND b.start_time < ? AND b.status != ?
		ORDER BY b.room_id, b.start_time`,
		start, end, model.StatusCanceled,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// CountOverlappingTx counts non-canceled bookings for the room whose
// half-open interval intersects [start, end). Run inside the create
// transaction so the check and the insert see the same state.
func (db *DB) CountOverlappingTx(ctx context.Context, tx *sql.Tx, roomID int64, start, end time.Time) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE room_id = ?
		AND start_time < ? AND end_time > ?
		AND status != ?`,
		roomID, end, start, model.StatusCanceled,
	).Scan(&count)
	return count, err
}

// InsertBookingTx persists a new booking and fills in its id.
func (db *DB) InsertBookingTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (reference, room_id, patient_id, doctor_id, procedure_id,
			specialty, start_time, end_time, duration_minutes, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Reference, b.RoomID, b.PatientID, b.DoctorID, b.ProcedureID,
		b.Specialty, b.StartTime, b.EndTime(), b.DurationMinutes, b.Status, b.Notes, now, now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// UpdateBookingStatus transitions a booking from one status to another.
// The update is conditional on the current status, so a transition raced
// by another writer changes nothing and reports false.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24 * time.Hour)
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var specialty, notes sql.NullString
		if err := rows.Scan(
			&b.ID, &b.Reference, &b.RoomID, &b.PatientID, &b.DoctorID, &b.ProcedureID,
			&specialty, &b.StartTime, &b.DurationMinutes, &b.Status, &notes,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if specialty.Valid {
			b.Specialty = specialty.String
		}
		if notes.Valid {
			b.Notes = notes.String
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBookingRow(row *sql.Row) (*model.Booking, error) {
	var b model.Booking
	var specialty, notes sql.NullString
	err := row.Scan(
		&b.ID, &b.Reference, &b.RoomID, &b.PatientID, &b.DoctorID, &b.ProcedureID,
		&specialty, &b.StartTime, &b.DurationMinutes, &b.Status, &notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if specialty.Valid {
		b.Specialty = specialty.String
	}
	if notes.Valid {
		b.Notes = notes.String
	}
	return &b, nil
}
