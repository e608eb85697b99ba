// Package notify pushes booking lifecycle notifications to the staff
// Telegram chat. Optional: when no bot token is configured nothing is
// wired.
package notify

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"frontdesk/internal/events"
	"frontdesk/internal/model"
)

// Notifier sends booking events to a fixed staff chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

func NewNotifier(token string, chatID int64, logger zerolog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// SubscribeAll registers the notifier on every booking event type.
func (n *Notifier) SubscribeAll(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, n.handle)
	bus.Subscribe(events.BookingCanceled, n.handle)
	bus.Subscribe(events.BookingCompleted, n.handle)
}

func (n *Notifier) handle(event events.Event) error {
	var booking model.Booking
	if err := json.Unmarshal(event.Payload, &booking); err != nil {
		n.logger.Warn().Err(err).Str("event", event.Type).Msg("decode event payload")
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, formatMessage(event.Type, &booking))
	if _, err := n.bot.Send(msg); err != nil {
		// Notification failures never affect the booking itself.
		n.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("send notification")
		return err
	}
	return nil
}

func formatMessage(eventType string, b *model.Booking) string {
	var verb string
	switch eventType {
	case events.BookingCreated:
		verb = "New booking"
	case events.BookingCanceled:
		verb = "Booking canceled"
	case events.BookingCompleted:
		verb = "Booking completed"
	default:
		verb = "Booking update"
	}

	room := b.RoomCode
	if room == "" {
		room = fmt.Sprintf("room %d", b.RoomID)
	}

	return fmt.Sprintf("%s #%d\n%s %s, %s – %s (%d min)",
		verb, b.ID, room,
		b.StartTime.Format("02.01.2006"),
		b.StartTime.Format("15:04"),
		b.EndTime().Format("15:04"),
		b.DurationMinutes,
	)
}
