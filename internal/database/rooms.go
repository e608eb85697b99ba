package database

import (
	"context"
	"database/sql"
	"strings"

	"frontdesk/internal/model"
)

const roomColumns = `id, code, name, type, occupant, open_time, close_time,
	capacity, equipment, is_active, created_at, updated_at`

// GetRoomByID returns the room or nil when absent.
func (db *DB) GetRoomByID(ctx context.Context, id int64) (*model.Room, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// GetRoomByCode returns the room with the given code ("C6") or nil.
func (db *DB) GetRoomByCode(ctx context.Context, code string) (*model.Room, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = ?`, code)
	return scanRoom(row)
}

// ListActiveRooms returns active rooms ordered by code.
func (db *DB) ListActiveRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE is_active = 1 ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		r, err := scanRoomRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRoom(row *sql.Row) (*model.Room, error) {
	var r model.Room
	var occupant, equipment sql.NullString
	err := row.Scan(
		&r.ID, &r.Code, &r.Name, &r.Type, &occupant, &r.OpenTime, &r.CloseTime,
		&r.Capacity, &equipment, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	applyRoomNullables(&r, occupant, equipment)
	return &r, nil
}

func scanRoomRows(rows *sql.Rows) (*model.Room, error) {
	var r model.Room
	var occupant, equipment sql.NullString
	err := rows.Scan(
		&r.ID, &r.Code, &r.Name, &r.Type, &occupant, &r.OpenTime, &r.CloseTime,
		&r.Capacity, &equipment, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	applyRoomNullables(&r, occupant, equipment)
	return &r, nil
}

func applyRoomNullables(r *model.Room, occupant, equipment sql.NullString) {
	if occupant.Valid {
		r.Occupant = occupant.String
	}
	if equipment.Valid && equipment.String != "" {
		r.Equipment = strings.Split(equipment.String, ",")
	}
}
