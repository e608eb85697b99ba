// Package audit keeps the booking audit trail: every lifecycle event is
// appended to the booking_audit table for later review.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"frontdesk/internal/events"
	"frontdesk/internal/model"
)

// Store persists audit entries.
type Store interface {
	RecordAudit(ctx context.Context, bookingID int64, action, details string) error
}

// Recorder subscribes to booking events and records them.
type Recorder struct {
	store  Store
	logger zerolog.Logger
}

func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// SubscribeAll registers the recorder on every booking event type.
func (r *Recorder) SubscribeAll(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, r.handle)
	bus.Subscribe(events.BookingCanceled, r.handle)
	bus.Subscribe(events.BookingCompleted, r.handle)
}

func (r *Recorder) handle(event events.Event) error {
	var booking model.Booking
	if err := json.Unmarshal(event.Payload, &booking); err != nil {
		r.logger.Warn().Err(err).Str("event", event.Type).Msg("decode event payload")
		return err
	}

	details := fmt.Sprintf("room=%d start=%s duration=%dm",
		booking.RoomID, booking.StartTime.Format("2006-01-02 15:04"), booking.DurationMinutes)

	if err := r.store.RecordAudit(context.Background(), booking.ID, event.Type, details); err != nil {
		r.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("record audit entry")
		return err
	}
	return nil
}
