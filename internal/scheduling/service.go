// Package scheduling is the service boundary the API layer calls. It
// orchestrates the catalog, the resolver and the ledger for each request;
// the components stay independently testable.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"frontdesk/internal/availability"
	"frontdesk/internal/cache"
	"frontdesk/internal/events"
	"frontdesk/internal/ledger"
	"frontdesk/internal/metrics"
	"frontdesk/internal/model"
	"frontdesk/internal/schedule"
	"frontdesk/internal/slots"
)

// ErrValidation covers malformed input: missing reference ids, a duration
// outside the allowed set, or a time that is not a bookable slot.
var ErrValidation = errors.New("validation error")

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// CatalogSource resolves operating windows.
type CatalogSource interface {
	DayScheduleByCode(ctx context.Context, code string, date time.Time) (*schedule.DaySchedule, error)
}

// BookingLedger owns booking writes.
type BookingLedger interface {
	Create(ctx context.Context, req ledger.CreateRequest) (*model.Booking, error)
	Cancel(ctx context.Context, id int64) (*model.Booking, error)
	Complete(ctx context.Context, id int64) (*model.Booking, error)
	Get(ctx context.Context, id int64) (*model.Booking, error)
}

// BookingSource reads bookings and their audit trail.
type BookingSource interface {
	ListActiveByRoomDate(ctx context.Context, roomID int64, date time.Time) ([]model.Booking, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]model.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListAuditForBooking(ctx context.Context, bookingID int64) ([]model.AuditEntry, error)
}

// RoomSource reads the room registry.
type RoomSource interface {
	ListActiveRooms(ctx context.Context) ([]model.Room, error)
}

// GridSource reads the whole weekly grid.
type GridSource interface {
	ListAssignments(ctx context.Context) ([]model.WeeklyAssignment, error)
}

// Options carry the booking rules.
type Options struct {
	GranularityMinutes int
	AllowedDurations   []int
}

// Service is the scheduling façade.
type Service struct {
	catalog  CatalogSource
	ledger   BookingLedger
	bookings BookingSource
	rooms    RoomSource
	grid     GridSource
	cache    *cache.AvailabilityCache
	bus      *events.Bus
	opts     Options
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(
	catalog CatalogSource,
	led BookingLedger,
	bookings BookingSource,
	rooms RoomSource,
	grid GridSource,
	availCache *cache.AvailabilityCache,
	bus *events.Bus,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.GranularityMinutes <= 0 {
		opts.GranularityMinutes = slots.DefaultGranularityMinutes
	}
	if len(opts.AllowedDurations) == 0 {
		opts.AllowedDurations = []int{15, 30, 45, 60}
	}
	return &Service{
		catalog:  catalog,
		ledger:   led,
		bookings: bookings,
		rooms:    rooms,
		grid:     grid,
		cache:    availCache,
		bus:      bus,
		opts:     opts,
		now:      time.Now,
		logger:   logger.With().Str("component", "scheduling").Logger(),
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SlotView is one availability entry as rendered on the wire.
type SlotView struct {
	Time   string `json:"time"`
	Status string `json:"status"`
	Label  string `json:"label,omitempty"`
}

// DayAvailability is the availability listing for one room and date.
type DayAvailability struct {
	Room  string     `json:"room"`
	Name  string     `json:"name"`
	Date  string     `json:"date"`
	Slots []SlotView `json:"slots"`
}

// ListAvailability classifies every slot of the room's operating span on
// the date. Served from the Redis cache when fresh.
func (s *Service) ListAvailability(ctx context.Context, roomCode string, date time.Time) (*DayAvailability, error) {
	dateStr := date.Format(DateFormat)

	day, err := s.catalog.DayScheduleByCode(ctx, roomCode, date)
	if err != nil {
		return nil, err
	}

	if data, ok := s.cache.Get(ctx, day.Room.ID, dateStr); ok {
		var cached DayAvailability
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	bookings, err := s.bookings.ListActiveByRoomDate(ctx, day.Room.ID, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	classified, err := availability.Classify(day, s.opts.GranularityMinutes, bookings, s.now())
	if err != nil {
		return nil, err
	}

	result := &DayAvailability{
		Room:  day.Room.Code,
		Name:  day.Room.Name,
		Date:  dateStr,
		Slots: make([]SlotView, 0, len(classified)),
	}
	for _, slot := range classified {
		result.Slots = append(result.Slots, SlotView{
			Time:   slot.Time.String(),
			Status: string(slot.Status),
			Label:  slot.Label,
		})
	}

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, day.Room.ID, dateStr, data)
	}
	return result, nil
}

// BookRequest is the input shape for creating a booking.
type BookRequest struct {
	Room            string `json:"room"`
	Date            string `json:"date"` // YYYY-MM-DD
	Time            string `json:"time"` // HH:MM
	DurationMinutes int    `json:"duration_minutes"`
	PatientID       int64  `json:"patient_id"`
	DoctorID        int64  `json:"doctor_id"`
	ProcedureID     int64  `json:"procedure_id"`
	Notes           string `json:"notes,omitempty"`
}

// Book validates the request shape, resolves the slot against the
// catalog, and delegates conflict detection to the ledger.
func (s *Service) Book(ctx context.Context, req BookRequest) (*model.Booking, error) {
	if err := s.validateShape(req); err != nil {
		metrics.IncBookingRejected("validation")
		return nil, err
	}

	date, err := time.ParseInLocation(DateFormat, req.Date, time.Local)
	if err != nil {
		metrics.IncBookingRejected("validation")
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, req.Date)
	}
	timeOfDay, err := slots.ParseTimeOfDay(req.Time)
	if err != nil {
		metrics.IncBookingRejected("validation")
		return nil, fmt.Errorf("%w: invalid time %q, expected HH:MM", ErrValidation, req.Time)
	}

	day, err := s.catalog.DayScheduleByCode(ctx, req.Room, date)
	if err != nil {
		metrics.IncBookingRejected("unknown_room")
		return nil, err
	}

	window, err := s.validateSlot(day, timeOfDay, req.DurationMinutes)
	if err != nil {
		metrics.IncBookingRejected("validation")
		return nil, err
	}

	booking, err := s.ledger.Create(ctx, ledger.CreateRequest{
		RoomID:          day.Room.ID,
		Start:           timeOfDay.At(date),
		DurationMinutes: req.DurationMinutes,
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		ProcedureID:     req.ProcedureID,
		Specialty:       window.Label,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrOverlapConflict):
			metrics.IncBookingRejected("overlap")
		case errors.Is(err, ledger.ErrPastSlot):
			metrics.IncBookingRejected("past")
		}
		return nil, err
	}
	booking.RoomCode = day.Room.Code

	metrics.IncBookingCreated()
	s.cache.Invalidate(ctx, booking.RoomID, req.Date)
	s.publish(events.BookingCreated, booking)
	return booking, nil
}

// Release cancels a booking; the slot frees up immediately.
func (s *Service) Release(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.ledger.Cancel(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	metrics.IncBookingStatus(model.StatusCanceled)
	s.cache.Invalidate(ctx, booking.RoomID, booking.StartTime.Format(DateFormat))
	s.publish(events.BookingCanceled, booking)
	return booking, nil
}

// Finish marks a booking completed; its interval stays occupied.
func (s *Service) Finish(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.ledger.Complete(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	metrics.IncBookingStatus(model.StatusCompleted)
	s.cache.Invalidate(ctx, booking.RoomID, booking.StartTime.Format(DateFormat))
	s.publish(events.BookingCompleted, booking)
	return booking, nil
}

// GridEntry is one cell of the weekly grid as rendered on the wire.
type GridEntry struct {
	Room      string `json:"room"`
	Period    string `json:"period"`
	Label     string `json:"label"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// WeeklyGrid returns the rotating-room reference grid keyed by weekday
// name. Read-only; the grid is edited through the administrative side.
func (s *Service) WeeklyGrid(ctx context.Context) (map[string][]GridEntry, error) {
	assignments, err := s.grid.ListAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load weekly grid: %w", err)
	}

	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	codeByID := make(map[int64]string, len(rooms))
	for _, r := range rooms {
		codeByID[r.ID] = r.Code
	}

	grid := make(map[string][]GridEntry)
	for _, a := range assignments {
		dayName := weekdayName(a.Weekday)
		grid[dayName] = append(grid[dayName], GridEntry{
			Room:      codeByID[a.RoomID],
			Period:    a.Period,
			Label:     a.Label,
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
		})
	}
	return grid, nil
}

// RoomAgenda lists one room's active bookings for the daily board.
type RoomAgenda struct {
	Room     string          `json:"room"`
	Name     string          `json:"name"`
	Bookings []model.Booking `json:"bookings"`
}

// DayAgenda returns active bookings per room for a date.
func (s *Service) DayAgenda(ctx context.Context, date time.Time) ([]RoomAgenda, error) {
	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	bookings, err := s.bookings.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	byRoom := make(map[int64][]model.Booking)
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	out := make([]RoomAgenda, 0, len(rooms))
	for _, r := range rooms {
		entries := byRoom[r.ID]
		for i := range entries {
			entries[i].RoomCode = r.Code
		}
		out = append(out, RoomAgenda{Room: r.Code, Name: r.Name, Bookings: entries})
	}
	return out, nil
}

// BookingByReference resolves the external UUID handed out at creation.
func (s *Service) BookingByReference(ctx context.Context, reference string) (*model.Booking, error) {
	booking, err := s.bookings.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", reference, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: reference %s", ledger.ErrNotFound, reference)
	}
	return booking, nil
}

// AuditTrail lists the recorded lifecycle actions of a booking.
func (s *Service) AuditTrail(ctx context.Context, bookingID int64) ([]model.AuditEntry, error) {
	if _, err := s.ledger.Get(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.bookings.ListAuditForBooking(ctx, bookingID)
}

// Rooms returns the active room registry.
func (s *Service) Rooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.ListActiveRooms(ctx)
}

// RoomStatus is a registry entry annotated with whether the room still
// has a free slot on a given date.
type RoomStatus struct {
	model.Room
	Available bool `json:"available"`
}

// RoomsForDate annotates each active room with slot availability on the
// date, for the front desk's room picker.
func (s *Service) RoomsForDate(ctx context.Context, date time.Time) ([]RoomStatus, error) {
	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RoomStatus, 0, len(rooms))
	for _, r := range rooms {
		day, err := s.ListAvailability(ctx, r.Code, date)
		if err != nil {
			return nil, err
		}
		status := RoomStatus{Room: r}
		for _, slot := range day.Slots {
			if slot.Status == string(availability.StatusFree) {
				status.Available = true
				break
			}
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *Service) validateShape(req BookRequest) error {
	if req.Room == "" {
		return fmt.Errorf("%w: room is required", ErrValidation)
	}
	if req.PatientID <= 0 {
		return fmt.Errorf("%w: patient_id is required", ErrValidation)
	}
	if req.DoctorID <= 0 {
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if req.ProcedureID <= 0 {
		return fmt.Errorf("%w: procedure_id is required", ErrValidation)
	}
	for _, d := range s.opts.AllowedDurations {
		if req.DurationMinutes == d {
			return nil
		}
	}
	return fmt.Errorf("%w: duration %d not in allowed set %v", ErrValidation, req.DurationMinutes, s.opts.AllowedDurations)
}

// validateSlot checks that the requested time is a generated slot inside
// an assigned window and that the interval stays within the calendar date.
// Extending past the window close is allowed, matching front-desk practice
// for the last slots of the day.
func (s *Service) validateSlot(day *schedule.DaySchedule, t slots.TimeOfDay, durationMinutes int) (schedule.Window, error) {
	if day.Closed() {
		return schedule.Window{}, fmt.Errorf("%w: room %s does not operate on %s", ErrValidation, day.Room.Code, day.Date.Format(DateFormat))
	}
	window, ok := day.WindowAt(t)
	if !ok {
		return schedule.Window{}, fmt.Errorf("%w: %s is outside the assigned windows of room %s", ErrValidation, t, day.Room.Code)
	}
	if (t.Minutes()-day.Open.Minutes())%s.opts.GranularityMinutes != 0 {
		return schedule.Window{}, fmt.Errorf("%w: %s is not aligned to the %d-minute slot grid", ErrValidation, t, s.opts.GranularityMinutes)
	}
	if t.Minutes()+durationMinutes > 24*60 {
		return schedule.Window{}, fmt.Errorf("%w: booking may not cross midnight", ErrValidation)
	}
	return window, nil
}

func (s *Service) publish(eventType string, booking *model.Booking) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, booking); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event failed")
	}
}

func weekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "weekend"
	}
}
