// Package booking exposes the scheduling engine to the portal's booking
// surfaces: candidate discovery for patients and staff, and the committing
// write path.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novadent/dental-portal/internal/appointments"
	"github.com/novadent/dental-portal/internal/catalog"
	"github.com/novadent/dental-portal/internal/clinics"
	"github.com/novadent/dental-portal/internal/directory"
	"github.com/novadent/dental-portal/internal/events"
	"github.com/novadent/dental-portal/internal/observability/metrics"
	"github.com/novadent/dental-portal/internal/scheduling"
	"github.com/novadent/dental-portal/pkg/logging"
)

// AvailabilityStore reads configured dentist windows.
type AvailabilityStore interface {
	DatesWithWindows(ctx context.Context, dentistID uuid.UUID, from, to time.Time) ([]time.Time, error)
	HasWindow(ctx context.Context, dentistID uuid.UUID, date time.Time) (bool, error)
}

// ServiceCatalog resolves service durations and backs the booking form's
// service picker.
type ServiceCatalog interface {
	GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

// Directory validates dentist and patient references.
type Directory interface {
	GetDentist(ctx context.Context, id uuid.UUID) (*directory.Dentist, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
}

// ClinicRegistry supplies operating hours.
type ClinicRegistry interface {
	Get(ctx context.Context, clinicID string) (*clinics.Clinic, error)
}

// Ledger is the booking ledger boundary: advisory reads plus the committing
// write. Create must re-validate against the live ledger atomically.
type Ledger interface {
	ListActiveForDay(ctx context.Context, dentistID uuid.UUID, date time.Time) ([]appointments.Appointment, error)
	Create(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error)
}

// EventRecorder makes successful bookings observable to notification and
// audit collaborators.
type EventRecorder interface {
	Insert(ctx context.Context, clinicID string, eventType string, payload any) (uuid.UUID, error)
}

// Deps wires the service's collaborators. Windows, Catalog, People, Clinics
// and Ledger are required; the rest default.
type Deps struct {
	Windows AvailabilityStore
	Catalog ServiceCatalog
	People  Directory
	Clinics ClinicRegistry
	Ledger  Ledger
	Events  EventRecorder
	Clock   scheduling.Clock
	Logger  *logging.Logger
	Metrics *metrics.SchedulingMetrics

	// HorizonDays caps how far ahead available dates are offered.
	HorizonDays int
}

// Service orchestrates slot discovery and booking commits.
type Service struct {
	windows     AvailabilityStore
	catalog     ServiceCatalog
	people      Directory
	clinics     ClinicRegistry
	ledger      Ledger
	events      EventRecorder
	clock       scheduling.Clock
	logger      *logging.Logger
	metrics     *metrics.SchedulingMetrics
	tracer      trace.Tracer
	horizonDays int
}

// NewService constructs a booking service.
func NewService(deps Deps) *Service {
	if deps.Windows == nil {
		panic("booking: availability store required")
	}
	if deps.Catalog == nil {
		panic("booking: service catalog required")
	}
	if deps.People == nil {
		panic("booking: directory required")
	}
	if deps.Clinics == nil {
		panic("booking: clinic registry required")
	}
	if deps.Ledger == nil {
		panic("booking: ledger required")
	}
	if deps.Clock == nil {
		deps.Clock = scheduling.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.HorizonDays <= 0 {
		deps.HorizonDays = 90
	}
	return &Service{
		windows:     deps.Windows,
		catalog:     deps.Catalog,
		people:      deps.People,
		clinics:     deps.Clinics,
		ledger:      deps.Ledger,
		events:      deps.Events,
		clock:       deps.Clock,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		tracer:      otel.Tracer("dental.internal.booking"),
		horizonDays: deps.HorizonDays,
	}
}

// AvailableDates returns the dates in [from, to] with at least one configured
// window for the dentist. The range is clamped to [today, today+horizon];
// zero from/to default to the full horizon. A dentist with no windows yields
// an empty result; an unknown dentist is a NotFoundError.
//
// A date whose window is fully consumed by bookings still appears here: the
// candidate fetch for it simply comes back with every slot marked booked.
func (s *Service) AvailableDates(ctx context.Context, dentistID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	if dentistID == uuid.Nil {
		return nil, scheduling.NewValidationError("dentist_id", "is required")
	}
	if _, err := s.people.GetDentist(ctx, dentistID); err != nil {
		return nil, mapDirectoryError(err, dentistID)
	}

	today := dayOf(s.clock.Now())
	horizon := today.AddDate(0, 0, s.horizonDays)

	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = horizon
	}
	if to.Before(from) {
		return nil, scheduling.NewValidationError("to", "must not be before from")
	}
	if from.Before(today) {
		from = today
	}
	if to.After(horizon) {
		to = horizon
	}
	if to.Before(from) {
		return nil, nil
	}
	return s.windows.DatesWithWindows(ctx, dentistID, from, to)
}

// ListServices returns the bookable service catalog.
func (s *Service) ListServices(ctx context.Context) ([]catalog.Service, error) {
	return s.catalog.ListServices(ctx)
}

// BookedSlot is an occupied interval, used by UIs to render "(Booked)"
// markers.
type BookedSlot struct {
	StartMinute     int
	DurationMinutes int
}

// BookedSlots returns the dentist's occupied intervals for one date.
func (s *Service) BookedSlots(ctx context.Context, dentistID uuid.UUID, date time.Time) ([]BookedSlot, error) {
	if dentistID == uuid.Nil {
		return nil, scheduling.NewValidationError("dentist_id", "is required")
	}
	if date.IsZero() {
		return nil, scheduling.NewValidationError("date", "is required")
	}
	if _, err := s.people.GetDentist(ctx, dentistID); err != nil {
		return nil, mapDirectoryError(err, dentistID)
	}

	appts, err := s.ledger.ListActiveForDay(ctx, dentistID, date)
	if err != nil {
		return nil, err
	}

	entries := s.ledgerEntries(dentistID, date, appts)
	slots := make([]BookedSlot, len(entries))
	for i, e := range entries {
		d, _ := scheduling.ResolveDuration(e.DurationMinutes)
		slots[i] = BookedSlot{StartMinute: e.StartMinute, DurationMinutes: d}
	}
	return slots, nil
}

// CandidateSlots generates the offerable slots for one dentist, date and
// service, with already-taken slots flagged. The result is advisory: the
// commit path re-validates against the live ledger.
func (s *Service) CandidateSlots(ctx context.Context, clinicID string, dentistID, serviceID uuid.UUID, date time.Time) ([]scheduling.CandidateSlot, error) {
	started := time.Now()

	if dentistID == uuid.Nil {
		return nil, scheduling.NewValidationError("dentist_id", "is required")
	}
	if serviceID == uuid.Nil {
		return nil, scheduling.NewValidationError("service_id", "is required")
	}
	if date.IsZero() {
		return nil, scheduling.NewValidationError("date", "is required")
	}

	if _, err := s.people.GetDentist(ctx, dentistID); err != nil {
		return nil, mapDirectoryError(err, dentistID)
	}
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, mapCatalogError(err, serviceID)
	}

	hasWindow, err := s.windows.HasWindow(ctx, dentistID, date)
	if err != nil {
		return nil, err
	}
	if !hasWindow {
		return nil, &scheduling.AvailabilityError{DentistID: dentistID.String(), Date: date}
	}

	clinic, err := s.clinics.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	slots := scheduling.GenerateSlots(date, svc.DurationMinutes, clinic.OpenMinute, clinic.CloseMinute, s.clock.Now())

	appts, err := s.ledger.ListActiveForDay(ctx, dentistID, date)
	if err != nil {
		return nil, err
	}
	slots = scheduling.MarkBooked(slots, svc.DurationMinutes, s.ledgerEntries(dentistID, date, appts))

	s.metrics.ObserveSlotGeneration(time.Since(started).Seconds())
	return slots, nil
}

// CreateBookingParams is the submitted slot.
type CreateBookingParams struct {
	DentistID   uuid.UUID
	PatientID   uuid.UUID
	ServiceID   uuid.UUID
	Date        time.Time
	StartMinute int
	Notes       string

	// Status selects the initial workflow state; empty defaults to confirmed.
	Status appointments.Status
}

// CreateBooking validates the submission, re-checks the requested interval
// against the live ledger and commits the appointment. The candidate list the
// client chose from may be stale by now, so a ConflictError here is a normal,
// expected outcome.
func (s *Service) CreateBooking(ctx context.Context, clinicID string, p CreateBookingParams) (*appointments.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("dental.clinic_id", clinicID),
		attribute.String("dental.dentist_id", p.DentistID.String()),
		attribute.String("dental.date", scheduling.FormatDate(p.Date)),
	)

	if err := s.validateBooking(clinicID, p); err != nil {
		s.metrics.ObserveBooking("validation_error")
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = appointments.StatusConfirmed
	}

	if _, err := s.people.GetDentist(ctx, p.DentistID); err != nil {
		s.metrics.ObserveBooking("not_found")
		return nil, mapDirectoryError(err, p.DentistID)
	}
	if _, err := s.people.GetPatient(ctx, p.PatientID); err != nil {
		s.metrics.ObserveBooking("not_found")
		return nil, mapDirectoryError(err, p.PatientID)
	}
	svc, err := s.catalog.GetService(ctx, p.ServiceID)
	if err != nil {
		s.metrics.ObserveBooking("not_found")
		return nil, mapCatalogError(err, p.ServiceID)
	}

	hasWindow, err := s.windows.HasWindow(ctx, p.DentistID, p.Date)
	if err != nil {
		s.metrics.ObserveBooking("error")
		span.RecordError(err)
		return nil, err
	}
	if !hasWindow {
		s.metrics.ObserveBooking("no_availability")
		return nil, &scheduling.AvailabilityError{DentistID: p.DentistID.String(), Date: p.Date}
	}

	appt := &appointments.Appointment{
		ClinicID:        clinicID,
		DentistID:       p.DentistID,
		PatientID:       p.PatientID,
		ServiceID:       p.ServiceID,
		Date:            p.Date,
		StartMinute:     p.StartMinute,
		DurationMinutes: svc.DurationMinutes,
		Status:          status,
		Notes:           p.Notes,
	}

	created, err := s.ledger.Create(ctx, appt)
	if err != nil {
		var conflict *scheduling.ConflictError
		if errors.As(err, &conflict) {
			s.metrics.ObserveBooking("conflict")
			s.metrics.ObserveConflict()
			s.logger.Warn("booking rejected: slot taken",
				"dentist_id", p.DentistID,
				"date", scheduling.FormatDate(p.Date),
				"time", scheduling.FormatMinute(p.StartMinute),
				"conflict_start", scheduling.FormatMinute(conflict.Conflicting.StartMinute),
				"conflict_end", scheduling.FormatMinute(conflict.Conflicting.EndMinute()),
			)
			return nil, err
		}
		s.metrics.ObserveBooking("error")
		span.RecordError(err)
		return nil, err
	}

	if s.events != nil {
		payload := events.BookingCreated{
			AppointmentID:   created.ID,
			DentistID:       created.DentistID,
			PatientID:       created.PatientID,
			ServiceID:       created.ServiceID,
			Date:            scheduling.FormatDate(created.Date),
			Time:            scheduling.FormatMinute(created.StartMinute),
			DurationMinutes: created.DurationMinutes,
			Status:          string(created.Status),
		}
		if _, err := s.events.Insert(ctx, clinicID, events.TypeBookingCreated, payload); err != nil {
			// The booking is committed; a failed event write must not undo it.
			s.logger.Error("failed to record booking event", "error", err, "appointment_id", created.ID)
		}
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("booking created",
		"appointment_id", created.ID,
		"clinic_id", clinicID,
		"dentist_id", created.DentistID,
		"date", scheduling.FormatDate(created.Date),
		"time", scheduling.FormatMinute(created.StartMinute),
		"duration_minutes", created.DurationMinutes,
		"status", created.Status,
	)
	return created, nil
}

func (s *Service) validateBooking(clinicID string, p CreateBookingParams) error {
	if clinicID == "" {
		return scheduling.NewValidationError("clinic_id", "is required")
	}
	if p.DentistID == uuid.Nil {
		return scheduling.NewValidationError("dentist_id", "is required")
	}
	if p.PatientID == uuid.Nil {
		return scheduling.NewValidationError("patient_id", "is required")
	}
	if p.ServiceID == uuid.Nil {
		return scheduling.NewValidationError("service_id", "is required")
	}
	if p.Date.IsZero() {
		return scheduling.NewValidationError("date", "is required")
	}
	if p.StartMinute < 0 || p.StartMinute >= 24*60 {
		return scheduling.NewValidationError("time", "must be within the day")
	}
	if p.Status != "" && p.Status != appointments.StatusPending && p.Status != appointments.StatusConfirmed {
		return scheduling.NewValidationError("status", "must be pending or confirmed")
	}
	return nil
}

// ledgerEntries converts ledger rows to conflict-check entries, surfacing any
// duration fallbacks in logs and telemetry.
func (s *Service) ledgerEntries(dentistID uuid.UUID, date time.Time, appts []appointments.Appointment) []scheduling.LedgerEntry {
	entries := make([]scheduling.LedgerEntry, len(appts))
	for i, a := range appts {
		entries[i] = scheduling.LedgerEntry{StartMinute: a.StartMinute, DurationMinutes: a.DurationMinutes}
	}
	if n := scheduling.CountFallbacks(entries); n > 0 {
		s.metrics.ObserveDurationFallback(n)
		s.logger.Warn("ledger entries missing service duration, using fallback",
			"dentist_id", dentistID,
			"date", scheduling.FormatDate(date),
			"entries", n,
			"fallback_minutes", scheduling.FallbackDurationMinutes,
		)
	}
	return entries
}

func mapDirectoryError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, directory.ErrDentistNotFound):
		return &scheduling.NotFoundError{Resource: "dentist", ID: id.String()}
	case errors.Is(err, directory.ErrPatientNotFound):
		return &scheduling.NotFoundError{Resource: "patient", ID: id.String()}
	default:
		return err
	}
}

func mapCatalogError(err error, id uuid.UUID) error {
	if errors.Is(err, catalog.ErrServiceNotFound) {
		return &scheduling.NotFoundError{Resource: "service", ID: id.String()}
	}
	return err
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
