package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/model"
	"frontdesk/internal/slots"
)

func mustMinute(t *testing.T, s string) slots.TimeOfDay {
	t.Helper()
	v, err := slots.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

type stubRooms struct {
	byID   map[int64]*model.Room
	byCode map[string]*model.Room
}

func (s *stubRooms) GetRoomByID(_ context.Context, id int64) (*model.Room, error) {
	return s.byID[id], nil
}

func (s *stubRooms) GetRoomByCode(_ context.Context, code string) (*model.Room, error) {
	return s.byCode[code], nil
}

type stubAssignments struct {
	rows []model.WeeklyAssignment
}

func (s *stubAssignments) GetAssignments(_ context.Context, roomID int64, weekday time.Weekday) ([]model.WeeklyAssignment, error) {
	var out []model.WeeklyAssignment
	for _, a := range s.rows {
		if a.RoomID == roomID && a.Weekday == weekday {
			out = append(out, a)
		}
	}
	return out, nil
}

func fixedRoom() *model.Room {
	return &model.Room{
		ID: 1, Code: "C1", Name: "Consulting Room 1", Type: model.RoomFixed,
		Occupant: "ESF 1", OpenTime: "07:00", CloseTime: "16:00", IsActive: true,
	}
}

func rotatingRoom() *model.Room {
	return &model.Room{
		ID: 6, Code: "C6", Name: "Consulting Room 6", Type: model.RoomRotating,
		OpenTime: "07:00", CloseTime: "19:00", IsActive: true,
	}
}

func newTestCatalog(rooms []*model.Room, assignments []model.WeeklyAssignment) *Catalog {
	src := &stubRooms{byID: map[int64]*model.Room{}, byCode: map[string]*model.Room{}}
	for _, r := range rooms {
		src.byID[r.ID] = r
		src.byCode[r.Code] = r
	}
	return NewCatalog(src, &stubAssignments{rows: assignments})
}

// 2026-03-09 is a Monday.
var monday = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)

func TestDaySchedule_FixedRoom(t *testing.T) {
	cat := newTestCatalog([]*model.Room{fixedRoom()}, nil)

	day, err := cat.DaySchedule(context.Background(), 1, monday)
	require.NoError(t, err)

	require.Len(t, day.Windows, 1)
	assert.Equal(t, "07:00", day.Windows[0].Open.String())
	assert.Equal(t, "16:00", day.Windows[0].Close.String())
	assert.Equal(t, "ESF 1", day.Windows[0].Label)
	assert.False(t, day.Closed())

	// Fixed hours do not depend on the weekday.
	saturday := monday.AddDate(0, 0, 5)
	day, err = cat.DaySchedule(context.Background(), 1, saturday)
	require.NoError(t, err)
	require.Len(t, day.Windows, 1)
}

func TestDaySchedule_UnknownRoom(t *testing.T) {
	cat := newTestCatalog([]*model.Room{fixedRoom()}, nil)

	_, err := cat.DaySchedule(context.Background(), 99, monday)
	assert.ErrorIs(t, err, ErrUnknownRoom)

	_, err = cat.DayScheduleByCode(context.Background(), "C9", monday)
	assert.ErrorIs(t, err, ErrUnknownRoom)
}

func TestDaySchedule_InactiveRoomIsUnknown(t *testing.T) {
	room := fixedRoom()
	room.IsActive = false
	cat := newTestCatalog([]*model.Room{room}, nil)

	_, err := cat.DaySchedule(context.Background(), 1, monday)
	assert.ErrorIs(t, err, ErrUnknownRoom)
}

func TestDaySchedule_RotatingBothPeriodsSplit(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Cardiology"},
		{ID: 2, RoomID: 6, Weekday: time.Monday, Period: model.PeriodAfternoon, Label: "Acupuncture"},
	})

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)

	// Default period bounds leave the 12:00-13:00 gap unassigned.
	require.Len(t, day.Windows, 2)
	assert.Equal(t, "07:00", day.Windows[0].Open.String())
	assert.Equal(t, "12:00", day.Windows[0].Close.String())
	assert.Equal(t, "Cardiology", day.Windows[0].Label)
	assert.Equal(t, "13:00", day.Windows[1].Open.String())
	assert.Equal(t, "19:00", day.Windows[1].Close.String())
	assert.Equal(t, "Acupuncture", day.Windows[1].Label)
}

func TestDaySchedule_RotatingContiguousSameLabelMerges(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Support", StartTime: "07:00", EndTime: "12:00"},
		{ID: 2, RoomID: 6, Weekday: time.Monday, Period: model.PeriodAfternoon, Label: "Support", StartTime: "12:00", EndTime: "16:00"},
	})

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)

	require.Len(t, day.Windows, 1)
	assert.Equal(t, "07:00", day.Windows[0].Open.String())
	assert.Equal(t, "16:00", day.Windows[0].Close.String())
	assert.Equal(t, "Support", day.Windows[0].Label)
}

func TestDaySchedule_RotatingContiguousDifferentLabelsStaySplit(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Pediatrics", StartTime: "08:00", EndTime: "12:00"},
		{ID: 2, RoomID: 6, Weekday: time.Monday, Period: model.PeriodAfternoon, Label: "Acupuncture", StartTime: "12:00", EndTime: "17:00"},
	})

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)
	require.Len(t, day.Windows, 2)
}

func TestDaySchedule_RotatingMorningOnly(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Cardiology"},
	})

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)

	require.Len(t, day.Windows, 1)
	assert.Equal(t, "Cardiology", day.Windows[0].Label)
	assert.False(t, day.Closed())

	// Afternoon slots exist in the span but carry no window.
	_, ok := day.WindowAt(mustMinute(t, "14:00"))
	assert.False(t, ok)
	_, ok = day.WindowAt(mustMinute(t, "10:00"))
	assert.True(t, ok)
}

func TestDaySchedule_RotatingUnassignedWeekday(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, nil)

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)

	// Still enumerable: the span stays open so slots report unavailable.
	assert.Empty(t, day.Windows)
	assert.False(t, day.Closed())
	assert.Equal(t, "07:00", day.Open.String())
}

func TestDaySchedule_RotatingWeekendClosed(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Cardiology"},
	})

	sunday := monday.AddDate(0, 0, -1)
	day, err := cat.DaySchedule(context.Background(), 6, sunday)
	require.NoError(t, err)
	assert.True(t, day.Closed())
}

func TestDaySchedule_ExplicitRangeClampedToRoomHours(t *testing.T) {
	cat := newTestCatalog([]*model.Room{rotatingRoom()}, []model.WeeklyAssignment{
		{ID: 1, RoomID: 6, Weekday: time.Monday, Period: model.PeriodMorning, Label: "Cardiology", StartTime: "06:00", EndTime: "12:00"},
	})

	day, err := cat.DaySchedule(context.Background(), 6, monday)
	require.NoError(t, err)
	require.Len(t, day.Windows, 1)
	assert.Equal(t, "07:00", day.Windows[0].Open.String())
}
