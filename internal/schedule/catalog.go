package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"frontdesk/internal/model"
	"frontdesk/internal/slots"
)

// ErrUnknownRoom indicates an unregistered or inactive room id.
var ErrUnknownRoom = errors.New("unknown room")

// Default operating hours and period boundaries for rooms that carry no
// explicit configuration.
const (
	DefaultOpenTime       = "07:00"
	DefaultCloseTime      = "19:00"
	defaultMorningEnd     = "12:00"
	defaultAfternoonStart = "13:00"
)

// Window is a bookable sub-span of a day with the specialty occupying it.
type Window struct {
	Open  slots.TimeOfDay
	Close slots.TimeOfDay
	Label string
}

// Contains reports whether a slot instant falls inside the window,
// both bounds inclusive (the close instant is itself a bookable slot).
func (w Window) Contains(t slots.TimeOfDay) bool {
	return t >= w.Open && t <= w.Close
}

// DaySchedule is the resolved operating plan of one room on one date.
// Open/Close span the whole enumerable day; Windows are the assigned
// sub-spans. Slots outside every window are unavailable. An empty Windows
// list with Open == Close == 0 means the room does not operate that day.
type DaySchedule struct {
	Room    *model.Room
	Date    time.Time
	Open    slots.TimeOfDay
	Close   slots.TimeOfDay
	Windows []Window
}

// Closed reports whether the room has no operating span on the date.
// A weekday with an operating span but no assigned windows is not closed:
// its slots are enumerated and reported as unavailable.
func (d *DaySchedule) Closed() bool {
	return len(d.Windows) == 0 && d.Open == 0 && d.Close == 0
}

// WindowAt returns the window containing the slot, if any.
func (d *DaySchedule) WindowAt(t slots.TimeOfDay) (Window, bool) {
	for _, w := range d.Windows {
		if w.Contains(t) {
			return w, true
		}
	}
	return Window{}, false
}

// RoomSource resolves rooms from the registry.
type RoomSource interface {
	GetRoomByID(ctx context.Context, id int64) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*model.Room, error)
}

// AssignmentSource resolves weekly grid entries for rotating rooms.
type AssignmentSource interface {
	GetAssignments(ctx context.Context, roomID int64, weekday time.Weekday) ([]model.WeeklyAssignment, error)
}

// Catalog maps (room, date) to the day's operating windows. Read-only:
// rooms and the weekly grid are reference data owned by the admin side.
type Catalog struct {
	rooms       RoomSource
	assignments AssignmentSource
}

func NewCatalog(rooms RoomSource, assignments AssignmentSource) *Catalog {
	return &Catalog{rooms: rooms, assignments: assignments}
}

// DaySchedule resolves the operating plan for a room on a date.
func (c *Catalog) DaySchedule(ctx context.Context, roomID int64, date time.Time) (*DaySchedule, error) {
	room, err := c.rooms.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.IsActive {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownRoom, roomID)
	}
	return c.dayScheduleForRoom(ctx, room, date)
}

// DayScheduleByCode resolves by room code ("C6") instead of id.
func (c *Catalog) DayScheduleByCode(ctx context.Context, code string, date time.Time) (*DaySchedule, error) {
	room, err := c.rooms.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.IsActive {
		return nil, fmt.Errorf("%w: code %s", ErrUnknownRoom, code)
	}
	return c.dayScheduleForRoom(ctx, room, date)
}

func (c *Catalog) dayScheduleForRoom(ctx context.Context, room *model.Room, date time.Time) (*DaySchedule, error) {
	open, close, err := roomHours(room)
	if err != nil {
		return nil, err
	}

	day := &DaySchedule{Room: room, Date: date, Open: open, Close: close}

	if room.IsFixed() {
		day.Windows = []Window{{Open: open, Close: close, Label: room.Occupant}}
		return day, nil
	}

	// Rotating rooms follow the Mon-Fri grid; weekends have no slots.
	if !model.IsWorkday(date.Weekday()) {
		day.Open, day.Close = 0, 0
		return day, nil
	}

	assigned, err := c.assignments.GetAssignments(ctx, room.ID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("load assignments for room %d: %w", room.ID, err)
	}

	windows, err := buildWindows(assigned, open, close)
	if err != nil {
		return nil, err
	}
	day.Windows = windows
	return day, nil
}

// buildWindows turns the day's assignments into at most two sub-windows,
// merging morning and afternoon when they are contiguous and carry the
// same label.
func buildWindows(assigned []model.WeeklyAssignment, open, close slots.TimeOfDay) ([]Window, error) {
	var morning, afternoon *Window

	for i := range assigned {
		a := assigned[i]
		w, err := assignmentWindow(a, open, close)
		if err != nil {
			return nil, err
		}
		switch a.Period {
		case model.PeriodMorning:
			morning = &w
		case model.PeriodAfternoon:
			afternoon = &w
		default:
			return nil, fmt.Errorf("%w: assignment %d has period %q", slots.ErrInvalidWindow, a.ID, a.Period)
		}
	}

	switch {
	case morning == nil && afternoon == nil:
		return nil, nil
	case morning == nil:
		return []Window{*afternoon}, nil
	case afternoon == nil:
		return []Window{*morning}, nil
	case morning.Close == afternoon.Open && morning.Label == afternoon.Label:
		return []Window{{Open: morning.Open, Close: afternoon.Close, Label: morning.Label}}, nil
	default:
		return []Window{*morning, *afternoon}, nil
	}
}

func assignmentWindow(a model.WeeklyAssignment, open, close slots.TimeOfDay) (Window, error) {
	startStr, endStr := a.StartTime, a.EndTime
	if startStr == "" || endStr == "" {
		switch a.Period {
		case model.PeriodMorning:
			startStr, endStr = open.String(), defaultMorningEnd
		case model.PeriodAfternoon:
			startStr, endStr = defaultAfternoonStart, close.String()
		}
	}

	start, err := slots.ParseTimeOfDay(startStr)
	if err != nil {
		return Window{}, fmt.Errorf("%w: assignment %d start: %v", slots.ErrInvalidWindow, a.ID, err)
	}
	end, err := slots.ParseTimeOfDay(endStr)
	if err != nil {
		return Window{}, fmt.Errorf("%w: assignment %d end: %v", slots.ErrInvalidWindow, a.ID, err)
	}
	if start > end {
		return Window{}, fmt.Errorf("%w: assignment %d spans %s-%s", slots.ErrInvalidWindow, a.ID, start, end)
	}

	// Clamp to the room's operating span.
	if start < open {
		start = open
	}
	if end > close {
		end = close
	}
	return Window{Open: start, Close: end, Label: a.Label}, nil
}

func roomHours(room *model.Room) (slots.TimeOfDay, slots.TimeOfDay, error) {
	openStr, closeStr := room.OpenTime, room.CloseTime
	if openStr == "" {
		openStr = DefaultOpenTime
	}
	if closeStr == "" {
		closeStr = DefaultCloseTime
	}

	open, err := slots.ParseTimeOfDay(openStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: room %s open: %v", slots.ErrInvalidWindow, room.Code, err)
	}
	close, err := slots.ParseTimeOfDay(closeStr)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: room %s close: %v", slots.ErrInvalidWindow, room.Code, err)
	}
	if open > close {
		return 0, 0, fmt.Errorf("%w: room %s hours %s-%s", slots.ErrInvalidWindow, room.Code, open, close)
	}
	return open, close, nil
}
