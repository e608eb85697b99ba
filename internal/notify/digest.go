package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"frontdesk/internal/scheduling"
)

// AgendaSource provides the per-room booking list for a date.
type AgendaSource interface {
	DayAgenda(ctx context.Context, date time.Time) ([]scheduling.RoomAgenda, error)
}

// Digest sends tomorrow's agenda to the staff chat once a day.
type Digest struct {
	notifier *Notifier
	agenda   AgendaSource
	hour     int
	logger   zerolog.Logger
}

func NewDigest(notifier *Notifier, agenda AgendaSource, hour int, logger zerolog.Logger) *Digest {
	if hour < 0 || hour > 23 {
		hour = 18
	}
	return &Digest{
		notifier: notifier,
		agenda:   agenda,
		hour:     hour,
		logger:   logger.With().Str("component", "digest").Logger(),
	}
}

// Start runs the digest loop until the context is canceled.
func (d *Digest) Start(ctx context.Context) {
	timer := time.NewTimer(timeUntilNextHour(d.hour))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.sendTomorrow(ctx)
			timer.Reset(24 * time.Hour)
		}
	}
}

func (d *Digest) sendTomorrow(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)
	agenda, err := d.agenda.DayAgenda(ctx, tomorrow)
	if err != nil {
		d.logger.Error().Err(err).Msg("load tomorrow's agenda")
		return
	}

	msg := tgbotapi.NewMessage(d.notifier.chatID, formatDigest(tomorrow, agenda))
	if _, err := d.notifier.bot.Send(msg); err != nil {
		d.logger.Error().Err(err).Msg("send daily digest")
	}
}

func formatDigest(date time.Time, agenda []scheduling.RoomAgenda) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Agenda for %s\n", date.Format("02.01.2006"))

	total := 0
	for _, room := range agenda {
		if len(room.Bookings) == 0 {
			continue
		}
		total += len(room.Bookings)
		fmt.Fprintf(&sb, "\n%s %s\n", room.Room, room.Name)
		for _, b := range room.Bookings {
			fmt.Fprintf(&sb, "  %s (%d min)", b.StartTime.Format("15:04"), b.DurationMinutes)
			if b.Specialty != "" {
				fmt.Fprintf(&sb, " %s", b.Specialty)
			}
			sb.WriteString("\n")
		}
	}

	if total == 0 {
		sb.WriteString("\nNo bookings scheduled.")
	}
	return sb.String()
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.Local)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
