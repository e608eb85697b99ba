package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"frontdesk/internal/config"
)

// SyncReferenceData applies rooms.yaml to the database: rooms are upserted
// by code, rooms missing from the file are deactivated, and the weekly grid
// is replaced wholesale. Bookings are never touched.
func (db *DB) SyncReferenceData(ctx context.Context, cfg *config.RoomsConfig) error {
	if cfg == nil {
		return fmt.Errorf("rooms config is nil")
	}

	now := time.Now()
	seen := make(map[string]struct{})

	for _, room := range cfg.Rooms {
		isActive := 0
		if room.Active() {
			isActive = 1
		}

		openTime := room.OpenTime
		if openTime == "" {
			openTime = "07:00"
		}
		closeTime := room.CloseTime
		if closeTime == "" {
			closeTime = "19:00"
		}

		// Preserve created_at if the room already exists.
		_, err := db.ExecContext(ctx, `
			INSERT INTO rooms (code, name, type, occupant, open_time, close_time,
				capacity, equipment, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE((SELECT created_at FROM rooms WHERE code = ?), ?), ?)
			ON CONFLICT(code) DO UPDATE SET
				name = excluded.name,
				type = excluded.type,
				occupant = excluded.occupant,
				open_time = excluded.open_time,
				close_time = excluded.close_time,
				capacity = excluded.capacity,
				equipment = excluded.equipment,
				is_active = excluded.is_active,
				updated_at = excluded.updated_at`,
			room.Code, room.Name, room.Type, room.Occupant, openTime, closeTime,
			room.Capacity, strings.Join(room.Equipment, ","), isActive, room.Code, now, now,
		)
		if err != nil {
			return fmt.Errorf("sync room %s: %w", room.Code, err)
		}
		seen[room.Code] = struct{}{}
	}

	// Deactivate rooms that disappeared from the file.
	rows, err := db.QueryContext(ctx, `SELECT code FROM rooms WHERE is_active = 1`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return err
		}
		if _, ok := seen[code]; !ok {
			stale = append(stale, code)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, code := range stale {
		if _, err := db.ExecContext(ctx, `UPDATE rooms SET is_active = 0, updated_at = ? WHERE code = ?`, now, code); err != nil {
			return fmt.Errorf("deactivate room %s: %w", code, err)
		}
	}

	return db.replaceWeeklyGrid(ctx, cfg.WeeklyGrid, now)
}

// replaceWeeklyGrid swaps the grid atomically: a failed sync rolls back
// to the previous grid instead of leaving it half-replaced.
func (db *DB) replaceWeeklyGrid(ctx context.Context, grid []config.AssignmentConfig, now time.Time) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_assignments`); err != nil {
			return fmt.Errorf("clear weekly grid: %w", err)
		}

		for _, a := range grid {
			var roomID int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE code = ?`, a.Room).Scan(&roomID)
			if err == sql.ErrNoRows {
				return fmt.Errorf("weekly grid references unknown room %s", a.Room)
			}
			if err != nil {
				return fmt.Errorf("resolve room %s: %w", a.Room, err)
			}

			weekday, err := config.ParseWeekday(a.Weekday)
			if err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO weekly_assignments (room_id, weekday, period, label, start_time, end_time, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				roomID, weekday, a.Period, a.Label, a.StartTime, a.EndTime, now, now,
			); err != nil {
				return fmt.Errorf("insert assignment %s/%s/%s: %w", a.Room, a.Weekday, a.Period, err)
			}
		}
		return nil
	})
}
