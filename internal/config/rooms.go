package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"frontdesk/internal/model"
	"frontdesk/internal/slots"
)

// RoomConfig describes one consulting room in rooms.yaml.
type RoomConfig struct {
	Code      string   `yaml:"code"`
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"` // fixed | rotating
	Occupant  string   `yaml:"occupant,omitempty"`
	OpenTime  string   `yaml:"open_time,omitempty"`  // "07:00"
	CloseTime string   `yaml:"close_time,omitempty"` // "19:00"
	Capacity  int      `yaml:"capacity"`
	Equipment []string `yaml:"equipment,omitempty"`
	IsActive  *bool    `yaml:"is_active,omitempty"`
}

// Active defaults to true when omitted.
func (r *RoomConfig) Active() bool { return r.IsActive == nil || *r.IsActive }

// AssignmentConfig is one weekly-grid seed entry for a rotating room.
type AssignmentConfig struct {
	Room      string `yaml:"room"`    // room code
	Weekday   string `yaml:"weekday"` // monday..friday
	Period    string `yaml:"period"`  // morning | afternoon
	Label     string `yaml:"label"`
	StartTime string `yaml:"start_time,omitempty"`
	EndTime   string `yaml:"end_time,omitempty"`
}

// RoomsConfig is the root of rooms.yaml: the room registry plus the
// initial weekly grid for rotating rooms.
type RoomsConfig struct {
	Rooms      []RoomConfig       `yaml:"rooms"`
	WeeklyGrid []AssignmentConfig `yaml:"weekly_grid"`
}

var weekdayNames = map[string]int{
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
}

// ParseWeekday maps a config weekday name to its numeric value (Mon=1).
func ParseWeekday(name string) (int, error) {
	d, ok := weekdayNames[name]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q (saturday/sunday are not schedulable)", name)
	}
	return d, nil
}

// LoadRoomsConfig loads and validates the rooms reference file.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the reference data for configuration errors.
func (c *RoomsConfig) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("no rooms defined")
	}

	codes := make(map[string]bool)
	for i, room := range c.Rooms {
		if room.Code == "" {
			return fmt.Errorf("room[%d]: code is required", i)
		}
		if codes[room.Code] {
			return fmt.Errorf("room[%d]: duplicate code %q", i, room.Code)
		}
		codes[room.Code] = true

		if room.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if room.Type != model.RoomFixed && room.Type != model.RoomRotating {
			return fmt.Errorf("room[%d]: type must be %q or %q, got %q", i, model.RoomFixed, model.RoomRotating, room.Type)
		}
		if room.Type == model.RoomFixed && room.Occupant == "" {
			return fmt.Errorf("room[%d]: fixed room needs an occupant", i)
		}
		if room.Capacity < 0 {
			return fmt.Errorf("room[%d]: capacity cannot be negative", i)
		}
		if err := validateHours(room.OpenTime, room.CloseTime, fmt.Sprintf("room[%d]", i)); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for i, a := range c.WeeklyGrid {
		if !codes[a.Room] {
			return fmt.Errorf("weekly_grid[%d]: unknown room %q", i, a.Room)
		}
		if _, err := ParseWeekday(a.Weekday); err != nil {
			return fmt.Errorf("weekly_grid[%d]: %w", i, err)
		}
		if a.Period != model.PeriodMorning && a.Period != model.PeriodAfternoon {
			return fmt.Errorf("weekly_grid[%d]: period must be %q or %q", i, model.PeriodMorning, model.PeriodAfternoon)
		}
		if a.Label == "" {
			return fmt.Errorf("weekly_grid[%d]: label is required", i)
		}
		key := a.Room + "/" + a.Weekday + "/" + a.Period
		if seen[key] {
			return fmt.Errorf("weekly_grid[%d]: duplicate entry %s", i, key)
		}
		seen[key] = true

		if err := validateHours(a.StartTime, a.EndTime, fmt.Sprintf("weekly_grid[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateHours(open, close, prefix string) error {
	if open == "" && close == "" {
		return nil
	}
	if open == "" || close == "" {
		return fmt.Errorf("%s: open/close times must both be set or both omitted", prefix)
	}
	o, err := slots.ParseTimeOfDay(open)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	c, err := slots.ParseTimeOfDay(close)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if o > c {
		return fmt.Errorf("%s: open %s is after close %s", prefix, open, close)
	}
	return nil
}
