package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"frontdesk/internal/ledger"
	"frontdesk/internal/schedule"
	"frontdesk/internal/scheduling"
	"frontdesk/internal/slots"
)

// HTTPServer exposes the scheduling service over REST.
type HTTPServer struct {
	svc     *scheduling.Service
	server  *http.Server
	apiKey  string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// Options configure the HTTP server.
type Options struct {
	Address        string
	APIKey         string
	RateLimit      float64
	RateLimitBurst int
}

func NewHTTPServer(svc *scheduling.Service, opts Options, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc:    svc,
		apiKey: opts.APIKey,
		logger: logger.With().Str("component", "api").Logger(),
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimitBurst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/rooms/{code}/availability", s.handleAvailability)
	mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/bookings/{reference}", s.handleGetBooking)
	mux.HandleFunc("GET /api/bookings/{id}/audit", s.handleBookingAudit)
	mux.HandleFunc("POST /api/bookings/{id}/cancel", s.handleCancelBooking)
	mux.HandleFunc("POST /api/bookings/{id}/complete", s.handleCompleteBooking)
	mux.HandleFunc("GET /api/schedule/weekly", s.handleWeeklyGrid)
	mux.HandleFunc("GET /api/agenda", s.handleDayAgenda)
	mux.HandleFunc("GET /api/reports/daily", s.handleDailyReport)

	s.server = &http.Server{
		Addr:         opts.Address,
		Handler:      s.middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the wrapped handler, for tests.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Start serves until the context is canceled.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("address", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorBody is the structured error shape of every non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// writeServiceError maps core errors onto the wire taxonomy.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, schedule.ErrUnknownRoom):
		writeError(w, http.StatusNotFound, "unknown_room", err.Error())
	case errors.Is(err, ledger.ErrOverlapConflict):
		writeError(w, http.StatusConflict, "overlap_conflict", err.Error())
	case errors.Is(err, ledger.ErrPastSlot):
		writeError(w, http.StatusUnprocessableEntity, "past_slot", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledger.ErrBadTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, slots.ErrInvalidWindow):
		// Operating-hours misconfiguration; surfaced to the admin, not retried.
		s.logger.Error().Err(err).Msg("invalid operating window")
		writeError(w, http.StatusInternalServerError, "invalid_window", err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
