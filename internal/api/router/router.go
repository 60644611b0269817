// Package router assembles the portal's HTTP surface.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/novadent/dental-portal/internal/admin"
	"github.com/novadent/dental-portal/internal/booking"
	httpmiddleware "github.com/novadent/dental-portal/internal/http/middleware"
	"github.com/novadent/dental-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	BookingHandler *booking.Handler
	StatsHandler   *admin.StatsHandler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string

	// Booking write-path rate limit; zero disables it.
	BookingRateLimit float64
	BookingRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Patient and staff booking surface, scoped to a clinic.
	if cfg.BookingHandler != nil {
		r.Group(func(api chi.Router) {
			api.Use(requireClinicID)

			api.Get("/services", cfg.BookingHandler.ListServices)

			api.Route("/dentists/{dentistID}", func(dentist chi.Router) {
				dentist.Get("/available-dates", cfg.BookingHandler.AvailableDates)
				dentist.Get("/booked-slots", cfg.BookingHandler.BookedSlots)
				dentist.Get("/candidate-slots", cfg.BookingHandler.CandidateSlots)
			})

			if cfg.BookingRateLimit > 0 {
				api.With(httpmiddleware.RateLimit(cfg.BookingRateLimit, cfg.BookingRateBurst)).
					Post("/bookings", cfg.BookingHandler.CreateBooking)
			} else {
				api.Post("/bookings", cfg.BookingHandler.CreateBooking)
			}
			api.Patch("/appointments/{appointmentID}/status", cfg.BookingHandler.UpdateStatus)
		})
	}

	// Staff reporting
	if cfg.StatsHandler != nil {
		r.Get("/admin/clinics/{clinicID}/booking-stats", cfg.StatsHandler.GetBookingStats)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
