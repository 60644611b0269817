package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/novadent/dental-portal/internal/appointments"
	"github.com/novadent/dental-portal/internal/catalog"
	"github.com/novadent/dental-portal/internal/scheduling"
	"github.com/novadent/dental-portal/internal/tenancy"
	"github.com/novadent/dental-portal/pkg/logging"
)

// API is the booking surface the HTTP layer depends on.
type API interface {
	ListServices(ctx context.Context) ([]catalog.Service, error)
	AvailableDates(ctx context.Context, dentistID uuid.UUID, from, to time.Time) ([]time.Time, error)
	BookedSlots(ctx context.Context, dentistID uuid.UUID, date time.Time) ([]BookedSlot, error)
	CandidateSlots(ctx context.Context, clinicID string, dentistID, serviceID uuid.UUID, date time.Time) ([]scheduling.CandidateSlot, error)
	CreateBooking(ctx context.Context, clinicID string, p CreateBookingParams) (*appointments.Appointment, error)
}

// StatusUpdater transitions appointments through their workflow states. This
// is the staff surface; the scheduling engine itself never changes status.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, next appointments.Status) (*appointments.Appointment, error)
}

// Handler serves the booking endpoints.
type Handler struct {
	svc      API
	statuses StatusUpdater
	logger   *logging.Logger
}

// NewHandler creates a booking HTTP handler.
func NewHandler(svc API, statuses StatusUpdater, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("booking: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, statuses: statuses, logger: logger}
}

type slotResponse struct {
	Time   string `json:"time"`
	Label  string `json:"label"`
	Booked bool   `json:"booked"`
}

type bookedSlotResponse struct {
	Time            string `json:"time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type appointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	ClinicID        string    `json:"clinic_id"`
	DentistID       uuid.UUID `json:"dentist_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	ServiceID       uuid.UUID `json:"service_id"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toAppointmentResponse(a *appointments.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		ClinicID:        a.ClinicID,
		DentistID:       a.DentistID,
		PatientID:       a.PatientID,
		ServiceID:       a.ServiceID,
		Date:            scheduling.FormatDate(a.Date),
		Time:            scheduling.FormatMinute(a.StartMinute),
		EndTime:         scheduling.FormatMinute(a.EndMinute()),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

// ListServices handles GET /services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.ListServices(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if services == nil {
		services = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

// AvailableDates handles GET /dentists/{dentistID}/available-dates.
func (h *Handler) AvailableDates(w http.ResponseWriter, r *http.Request) {
	dentistID, err := uuid.Parse(chi.URLParam(r, "dentistID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid dentist id")
		return
	}

	var from, to time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = scheduling.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = scheduling.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	dates, err := h.svc.AvailableDates(r.Context(), dentistID, from, to)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = scheduling.FormatDate(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}

// BookedSlots handles GET /dentists/{dentistID}/booked-slots.
func (h *Handler) BookedSlots(w http.ResponseWriter, r *http.Request) {
	dentistID, err := uuid.Parse(chi.URLParam(r, "dentistID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid dentist id")
		return
	}
	date, err := scheduling.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	slots, err := h.svc.BookedSlots(r.Context(), dentistID, date)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]bookedSlotResponse, len(slots))
	for i, s := range slots {
		out[i] = bookedSlotResponse{
			Time:            scheduling.FormatMinute(s.StartMinute),
			EndTime:         scheduling.FormatMinute(s.StartMinute + s.DurationMinutes),
			DurationMinutes: s.DurationMinutes,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

// CandidateSlots handles GET /dentists/{dentistID}/candidate-slots.
func (h *Handler) CandidateSlots(w http.ResponseWriter, r *http.Request) {
	dentistID, err := uuid.Parse(chi.URLParam(r, "dentistID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid dentist id")
		return
	}
	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid service id")
		return
	}
	date, err := scheduling.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	clinicID, _ := tenancy.ClinicIDFromContext(r.Context())
	slots, err := h.svc.CandidateSlots(r.Context(), clinicID, dentistID, serviceID, date)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]slotResponse, len(slots))
	for i, s := range slots {
		out[i] = slotResponse{
			Time:   scheduling.FormatMinute(s.StartMinute),
			Label:  s.Label,
			Booked: s.Booked,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

type createBookingRequest struct {
	DentistID uuid.UUID `json:"dentist_id"`
	PatientID uuid.UUID `json:"patient_id"`
	ServiceID uuid.UUID `json:"service_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Notes     string    `json:"notes"`
	Status    string    `json:"status"`
}

// CreateBooking handles POST /bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	date, err := scheduling.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	startMinute, err := scheduling.ParseMinute(req.Time)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	clinicID, _ := tenancy.ClinicIDFromContext(r.Context())
	created, err := h.svc.CreateBooking(r.Context(), clinicID, CreateBookingParams{
		DentistID:   req.DentistID,
		PatientID:   req.PatientID,
		ServiceID:   req.ServiceID,
		Date:        date,
		StartMinute: startMinute,
		Notes:       req.Notes,
		Status:      appointments.Status(req.Status),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(created))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{appointmentID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h.statuses == nil {
		writeError(w, http.StatusNotFound, "not_found", "status updates not enabled")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid appointment id")
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	updated, err := h.statuses.UpdateStatus(r.Context(), id, appointments.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			writeError(w, http.StatusNotFound, "not_found", "appointment not found")
		case errors.Is(err, appointments.ErrStatusTerminal):
			writeError(w, http.StatusConflict, "status_terminal", "appointment is already in a terminal state")
		default:
			h.logger.Error("status update failed", "error", err, "appointment_id", id)
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
}

// writeDomainError maps the scheduling error taxonomy onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *scheduling.ValidationError
		conflict     *scheduling.ConflictError
		availability *scheduling.AvailabilityError
		notFound     *scheduling.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "invalid_request", validation.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &availability):
		writeError(w, http.StatusUnprocessableEntity, "no_availability", availability.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": conflict.Error(),
			"code":  "conflict",
			"conflict": map[string]string{
				"start": scheduling.FormatMinute(conflict.Conflicting.StartMinute),
				"end":   scheduling.FormatMinute(conflict.Conflicting.EndMinute()),
			},
		})
	default:
		h.logger.Error("booking request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
