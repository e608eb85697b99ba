package model

import "time"

// Room occupancy types.
const (
	RoomFixed    = "fixed"    // one permanent occupant, static weekly hours
	RoomRotating = "rotating" // occupant derives from the weekly assignment grid
)

type Room struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"` // "C1".."C8"
	Name      string    `json:"name"`
	Type      string    `json:"type"` // fixed | rotating
	Occupant  string    `json:"occupant,omitempty"`
	OpenTime  string    `json:"open_time"`  // "07:00"
	CloseTime string    `json:"close_time"` // "19:00"
	Capacity  int       `json:"capacity"`
	Equipment []string  `json:"equipment,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Room) IsFixed() bool    { return r.Type == RoomFixed }
func (r *Room) IsRotating() bool { return r.Type == RoomRotating }
