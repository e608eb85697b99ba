// Package ledger is the authoritative store of bookings. It owns the
// no-overlap invariant: creates are serialized per room and re-validated
// inside the storage transaction, so two racing requests for intersecting
// intervals can never both succeed.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"frontdesk/internal/model"
)

var (
	// ErrOverlapConflict means the interval races a confirmed booking.
	// Recoverable: the caller should re-fetch availability and pick again.
	ErrOverlapConflict = errors.New("slot overlaps an existing booking")
	// ErrPastSlot means the start instant had already elapsed at
	// validation time.
	ErrPastSlot = errors.New("cannot book a past slot")
	// ErrNotFound means the booking id is unknown.
	ErrNotFound = errors.New("booking not found")
	// ErrBadTransition means the booking is not in a state the requested
	// operation applies to.
	ErrBadTransition = errors.New("invalid status transition")
)

// Store is the persistence surface the ledger needs.
type Store interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	CountOverlappingTx(ctx context.Context, tx *sql.Tx, roomID int64, start, end time.Time) (int, error)
	InsertBookingTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, from, to string) (bool, error)
}

// CreateRequest carries everything needed to persist a new booking.
type CreateRequest struct {
	RoomID          int64
	Start           time.Time
	DurationMinutes int
	PatientID       int64
	DoctorID        int64
	ProcedureID     int64
	Specialty       string
	Notes           string
}

// Ledger enforces exclusive room occupancy.
type Ledger struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger

	mu    sync.Mutex
	rooms map[int64]*sync.Mutex
}

func New(store Store, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "ledger").Logger(),
		rooms:  make(map[int64]*sync.Mutex),
	}
}

// WithClock replaces the wall clock, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// roomLock returns the mutex serializing writes for one room.
func (l *Ledger) roomLock(roomID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.rooms[roomID] = m
	}
	return m
}

// Create persists a new scheduled booking after re-validating, under the
// room lock, that the slot has not elapsed and the interval is free. The
// past check runs here even when the caller already filtered past slots:
// it closes the race between listing availability and submitting.
func (l *Ledger) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration %d", ErrBadTransition, req.DurationMinutes)
	}

	lock := l.roomLock(req.RoomID)
	lock.Lock()
	defer lock.Unlock()

	if req.Start.Before(l.now()) {
		return nil, fmt.Errorf("%w: %s", ErrPastSlot, req.Start.Format("2006-01-02 15:04"))
	}

	booking := &model.Booking{
		Reference:       uuid.NewString(),
		RoomID:          req.RoomID,
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		ProcedureID:     req.ProcedureID,
		Specialty:       req.Specialty,
		StartTime:       req.Start,
		DurationMinutes: req.DurationMinutes,
		Status:          model.StatusScheduled,
		Notes:           req.Notes,
	}

	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := l.store.CountOverlappingTx(ctx, tx, req.RoomID, booking.StartTime, booking.EndTime())
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: room %d at %s", ErrOverlapConflict, req.RoomID, req.Start.Format("15:04"))
		}
		return l.store.InsertBookingTx(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("room_id", booking.RoomID).
		Time("start", booking.StartTime).
		Int("duration_min", booking.DurationMinutes).
		Msg("booking created")
	return booking, nil
}

// Cancel transitions a booking to canceled. The booking row is kept for
// history; it stops occupying its interval immediately.
func (l *Ledger) Cancel(ctx context.Context, id int64) (*model.Booking, error) {
	return l.transition(ctx, id, model.StatusCanceled, func(b *model.Booking) error {
		if b.Status == model.StatusCanceled {
			return fmt.Errorf("%w: booking %d is already canceled", ErrBadTransition, id)
		}
		return nil
	})
}

// Complete transitions a scheduled booking to completed. Completed
// bookings still occupy their interval.
func (l *Ledger) Complete(ctx context.Context, id int64) (*model.Booking, error) {
	return l.transition(ctx, id, model.StatusCompleted, func(b *model.Booking) error {
		if b.Status != model.StatusScheduled {
			return fmt.Errorf("%w: cannot complete booking with status %s", ErrBadTransition, b.Status)
		}
		return nil
	})
}

// transition applies a status change with a compare-and-swap on the
// observed status: a concurrent transition between the read and the
// update leaves the row untouched, so a canceled booking can never be
// resurrected into occupying its interval again.
func (l *Ledger) transition(ctx context.Context, id int64, status string, check func(*model.Booking) error) (*model.Booking, error) {
	booking, err := l.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err := check(booking); err != nil {
		return nil, err
	}

	swapped, err := l.store.UpdateBookingStatus(ctx, id, booking.Status, status)
	if err != nil {
		return nil, fmt.Errorf("update booking %d: %w", id, err)
	}
	if !swapped {
		return nil, fmt.Errorf("%w: booking %d was modified concurrently", ErrBadTransition, id)
	}
	booking.Status = status

	l.logger.Info().Int64("booking_id", id).Str("status", status).Msg("booking status changed")
	return booking, nil
}

// Get returns a booking by id.
func (l *Ledger) Get(ctx context.Context, id int64) (*model.Booking, error) {
	booking, err := l.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return booking, nil
}
