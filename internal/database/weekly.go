package database

import (
	"context"
	"database/sql"
	"time"

	"frontdesk/internal/model"
)

const assignmentColumns = `id, room_id, weekday, period, label, start_time, end_time,
	created_at, updated_at`

// GetAssignments returns the weekly grid entries for a room on a weekday,
// morning first.
func (db *DB) GetAssignments(ctx context.Context, roomID int64, weekday time.Weekday) ([]model.WeeklyAssignment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM weekly_assignments
		WHERE room_id = ? AND weekday = ?
		ORDER BY CASE period WHEN 'morning' THEN 0 ELSE 1 END`,
		roomID, int(weekday),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

// ListAssignments returns the whole grid ordered by weekday, room, period.
func (db *DB) ListAssignments(ctx context.Context) ([]model.WeeklyAssignment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM weekly_assignments
		ORDER BY weekday, room_id, CASE period WHEN 'morning' THEN 0 ELSE 1 END`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAssignments(rows)
}

func collectAssignments(rows *sql.Rows) ([]model.WeeklyAssignment, error) {
	var out []model.WeeklyAssignment
	for rows.Next() {
		var a model.WeeklyAssignment
		var weekday int
		var start, end sql.NullString
		if err := rows.Scan(
			&a.ID, &a.RoomID, &weekday, &a.Period, &a.Label, &start, &end,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Weekday = time.Weekday(weekday)
		if start.Valid {
			a.StartTime = start.String
		}
		if end.Valid {
			a.EndTime = end.String
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
