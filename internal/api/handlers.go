package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"frontdesk/internal/metrics"
	"frontdesk/internal/report"
	"frontdesk/internal/scheduling"
)

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")

	// With ?date= each room is annotated with slot availability.
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, ok := s.parseDate(w, raw)
		if !ok {
			return
		}
		rooms, err := s.svc.RoomsForDate(r.Context(), date)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
		return
	}

	rooms, err := s.svc.Rooms(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")

	date, ok := s.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	day, err := s.svc.ListAvailability(r.Context(), r.PathValue("code"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_create")

	var req scheduling.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	booking, err := s.svc.Book(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("room", booking.RoomCode).
		Time("start", booking.StartTime).
		Msg("booking created")
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_get")

	booking, err := s.svc.BookingByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleBookingAudit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_audit")

	id, ok := s.parseID(w, r.PathValue("id"))
	if !ok {
		return
	}

	trail, err := s.svc.AuditTrail(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audit": trail})
}

func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_cancel")

	id, ok := s.parseID(w, r.PathValue("id"))
	if !ok {
		return
	}

	booking, err := s.svc.Release(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.logger.Info().Int64("booking_id", booking.ID).Msg("booking canceled")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("booking_complete")

	id, ok := s.parseID(w, r.PathValue("id"))
	if !ok {
		return
	}

	booking, err := s.svc.Finish(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.logger.Info().Int64("booking_id", booking.ID).Msg("booking completed")
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleWeeklyGrid(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("weekly_grid")

	grid, err := s.svc.WeeklyGrid(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedule": grid})
}

func (s *HTTPServer) handleDayAgenda(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("agenda")

	date, ok := s.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	agenda, err := s.svc.DayAgenda(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format(scheduling.DateFormat),
		"rooms": agenda,
	})
}

func (s *HTTPServer) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("report_daily")

	date, ok := s.parseDate(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	agenda, err := s.svc.DayAgenda(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteDaily(&buf, date, agenda); err != nil {
		s.logger.Error().Err(err).Msg("build daily report")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to build report")
		return
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", date.Format(scheduling.DateFormat))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "date query parameter is required")
		return time.Time{}, false
	}
	date, err := time.ParseInLocation(scheduling.DateFormat, raw, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		return time.Time{}, false
	}
	return date, true
}

func (s *HTTPServer) parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", fmt.Sprintf("invalid booking id %q", raw))
		return 0, false
	}
	return id, true
}
