package scheduling

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/cache"
	"frontdesk/internal/config"
	"frontdesk/internal/database"
	"frontdesk/internal/events"
	"frontdesk/internal/ledger"
	"frontdesk/internal/model"
	"frontdesk/internal/schedule"
)

// 2026-03-09 is a Monday.
var monday = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.Local)

func seedConfig() *config.RoomsConfig {
	return &config.RoomsConfig{
		Rooms: []config.RoomConfig{
			{Code: "C1", Name: "Consulting Room 1", Type: model.RoomFixed, Occupant: "ESF 1", Capacity: 1},
			{Code: "C2", Name: "Consulting Room 2", Type: model.RoomFixed, Occupant: "ESF 2", OpenTime: "07:00", CloseTime: "23:45", Capacity: 1},
			{Code: "C6", Name: "Consulting Room 6", Type: model.RoomRotating, Capacity: 1},
		},
		WeeklyGrid: []config.AssignmentConfig{
			{Room: "C6", Weekday: "monday", Period: "morning", Label: "Cardiology"},
			{Room: "C6", Weekday: "monday", Period: "afternoon", Label: "Acupuncture"},
			// No Friday morning assignment on purpose.
			{Room: "C6", Weekday: "friday", Period: "afternoon", Label: "Cardiology"},
		},
	}
}

type fixture struct {
	svc *Service
	db  *database.DB
	bus *events.Bus
}

func newFixture(t *testing.T, now time.Time, availCache *cache.AvailabilityCache) *fixture {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "scheduling_test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.SyncReferenceData(context.Background(), seedConfig()))

	led := ledger.New(db, logger).WithClock(func() time.Time { return now })
	cat := schedule.NewCatalog(db, db)
	bus := events.NewBus()

	svc := NewService(cat, led, db, db, db, availCache, bus, Options{}, logger).
		WithClock(func() time.Time { return now })
	return &fixture{svc: svc, db: db, bus: bus}
}

func bookReq(room, date, clock string) BookRequest {
	return BookRequest{
		Room:            room,
		Date:            date,
		Time:            clock,
		DurationMinutes: 30,
		PatientID:       10,
		DoctorID:        20,
		ProcedureID:     30,
	}
}

func slotStatus(t *testing.T, day *DayAvailability, clock string) string {
	t.Helper()
	for _, s := range day.Slots {
		if s.Time == clock {
			return s.Status
		}
	}
	t.Fatalf("no slot at %s", clock)
	return ""
}

func TestBook_ValidationErrors(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		mut  func(*BookRequest)
	}{
		{"missing room", func(r *BookRequest) { r.Room = "" }},
		{"missing patient", func(r *BookRequest) { r.PatientID = 0 }},
		{"missing doctor", func(r *BookRequest) { r.DoctorID = 0 }},
		{"missing procedure", func(r *BookRequest) { r.ProcedureID = 0 }},
		{"duration not allowed", func(r *BookRequest) { r.DurationMinutes = 25 }},
		{"bad date", func(r *BookRequest) { r.Date = "09.03.2026" }},
		{"bad time", func(r *BookRequest) { r.Time = "10am" }},
		{"misaligned time", func(r *BookRequest) { r.Time = "10:07" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookReq("C1", "2026-03-09", "10:00")
			tt.mut(&req)
			_, err := f.svc.Book(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBook_UnknownRoom(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	_, err := f.svc.Book(context.Background(), bookReq("C9", "2026-03-09", "10:00"))
	assert.ErrorIs(t, err, schedule.ErrUnknownRoom)
}

func TestBook_CreatesAndOccupiesSlot(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	var published []string
	f.bus.Subscribe(events.BookingCreated, func(e events.Event) error {
		published = append(published, e.Type)
		return nil
	})

	booking, err := f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusScheduled, booking.Status)
	assert.Equal(t, "C1", booking.RoomCode)
	assert.Equal(t, "ESF 1", booking.Specialty)
	assert.Equal(t, []string{events.BookingCreated}, published)

	day, err := f.svc.ListAvailability(ctx, "C1", monday)
	require.NoError(t, err)
	assert.Equal(t, "occupied", slotStatus(t, day, "10:00"))
	assert.Equal(t, "occupied", slotStatus(t, day, "10:15"))
	assert.Equal(t, "free", slotStatus(t, day, "10:30"))
}

func TestBook_OverlapConflict(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:15"))
	assert.ErrorIs(t, err, ledger.ErrOverlapConflict)

	_, err = f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:30"))
	assert.NoError(t, err)
}

func TestBook_PastSlot(t *testing.T) {
	f := newFixture(t, monday.Add(12*time.Hour), nil) // noon

	_, err := f.svc.Book(context.Background(), bookReq("C1", "2026-03-09", "09:00"))
	assert.ErrorIs(t, err, ledger.ErrPastSlot)
}

func TestBook_UnassignedPeriodRejected(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	// C6 Monday gap between morning (ends 12:00) and afternoon (starts 13:00).
	_, err := f.svc.Book(context.Background(), bookReq("C6", "2026-03-09", "12:30"))
	assert.ErrorIs(t, err, ErrValidation)

	// Friday morning has no assignment at all.
	_, err = f.svc.Book(context.Background(), bookReq("C6", "2026-03-13", "09:00"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBook_RotatingRoomUsesAssignmentLabel(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	booking, err := f.svc.Book(context.Background(), bookReq("C6", "2026-03-09", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", booking.Specialty)
}

func TestBook_MidnightCrossingRejected(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	// C2 closes at 23:45; a 30-minute booking there would cross midnight.
	_, err := f.svc.Book(context.Background(), bookReq("C2", "2026-03-09", "23:45"))
	assert.ErrorIs(t, err, ErrValidation)

	// The 23:30 slot fits exactly.
	_, err = f.svc.Book(context.Background(), bookReq("C2", "2026-03-09", "23:30"))
	assert.NoError(t, err)
}

func TestRelease_FreesSlotAndPublishes(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	var published []string
	f.bus.Subscribe(events.BookingCanceled, func(e events.Event) error {
		published = append(published, e.Type)
		return nil
	})

	booking, err := f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)

	released, err := f.svc.Release(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, released.Status)
	assert.Equal(t, []string{events.BookingCanceled}, published)

	day, err := f.svc.ListAvailability(ctx, "C1", monday)
	require.NoError(t, err)
	assert.Equal(t, "free", slotStatus(t, day, "10:00"))
}

func TestRelease_UnknownBooking(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	_, err := f.svc.Release(context.Background(), 424242)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestFinish_CompletesBooking(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	booking, err := f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)

	done, err := f.svc.Finish(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	// Completed bookings keep occupying the slot.
	day, err := f.svc.ListAvailability(ctx, "C1", monday)
	require.NoError(t, err)
	assert.Equal(t, "occupied", slotStatus(t, day, "10:00"))
}

func TestListAvailability_FridayMorningUnavailable(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	friday := monday.AddDate(0, 0, 4)
	day, err := f.svc.ListAvailability(context.Background(), "C6", friday)
	require.NoError(t, err)

	assert.Equal(t, "unavailable", slotStatus(t, day, "09:00"))
	assert.Equal(t, "unavailable", slotStatus(t, day, "11:45"))
	assert.Equal(t, "free", slotStatus(t, day, "13:00"))
}

func TestListAvailability_WeekendRotatingRoomEmpty(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	saturday := monday.AddDate(0, 0, 5)
	day, err := f.svc.ListAvailability(context.Background(), "C6", saturday)
	require.NoError(t, err)
	assert.Empty(t, day.Slots)
}

func TestListAvailability_CacheInvalidatedOnBook(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	availCache := cache.New(rdb, time.Minute, zerolog.Nop())

	f := newFixture(t, monday.Add(6*time.Hour), availCache)
	ctx := context.Background()

	day, err := f.svc.ListAvailability(ctx, "C1", monday)
	require.NoError(t, err)
	assert.Equal(t, "free", slotStatus(t, day, "10:00"))

	// Cached copy would still say free; booking must invalidate it.
	_, err = f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)

	day, err = f.svc.ListAvailability(ctx, "C1", monday)
	require.NoError(t, err)
	assert.Equal(t, "occupied", slotStatus(t, day, "10:00"))
}

func TestWeeklyGrid(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)

	grid, err := f.svc.WeeklyGrid(context.Background())
	require.NoError(t, err)

	require.Len(t, grid["monday"], 2)
	assert.Equal(t, "C6", grid["monday"][0].Room)
	assert.Equal(t, "morning", grid["monday"][0].Period)
	assert.Equal(t, "Cardiology", grid["monday"][0].Label)
	require.Len(t, grid["friday"], 1)
	assert.Empty(t, grid["tuesday"])
}

func TestDayAgenda_GroupsByRoom(t *testing.T) {
	f := newFixture(t, monday.Add(6*time.Hour), nil)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, bookReq("C1", "2026-03-09", "10:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, bookReq("C6", "2026-03-09", "09:00"))
	require.NoError(t, err)

	agenda, err := f.svc.DayAgenda(ctx, monday)
	require.NoError(t, err)

	byRoom := make(map[string]int)
	for _, entry := range agenda {
		byRoom[entry.Room] = len(entry.Bookings)
	}
	assert.Equal(t, 1, byRoom["C1"])
	assert.Equal(t, 1, byRoom["C6"])
	assert.Equal(t, 0, byRoom["C2"])
}
