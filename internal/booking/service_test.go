package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/novadent/dental-portal/internal/appointments"
	"github.com/novadent/dental-portal/internal/catalog"
	"github.com/novadent/dental-portal/internal/clinics"
	"github.com/novadent/dental-portal/internal/directory"
	"github.com/novadent/dental-portal/internal/scheduling"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubWindows struct {
	dates      []time.Time
	hasWindow  bool
	gotFrom    time.Time
	gotTo      time.Time
	queryCalls int
}

func (s *stubWindows) DatesWithWindows(_ context.Context, _ uuid.UUID, from, to time.Time) ([]time.Time, error) {
	s.queryCalls++
	s.gotFrom, s.gotTo = from, to
	return s.dates, nil
}

func (s *stubWindows) HasWindow(_ context.Context, _ uuid.UUID, _ time.Time) (bool, error) {
	return s.hasWindow, nil
}

type stubCatalog struct{ services map[uuid.UUID]*catalog.Service }

func (s *stubCatalog) GetService(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	if svc, ok := s.services[id]; ok {
		return svc, nil
	}
	return nil, catalog.ErrServiceNotFound
}

func (s *stubCatalog) ListServices(_ context.Context) ([]catalog.Service, error) {
	out := make([]catalog.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, *svc)
	}
	return out, nil
}

type stubDirectory struct {
	dentists map[uuid.UUID]*directory.Dentist
	patients map[uuid.UUID]*directory.Patient
}

func (s *stubDirectory) GetDentist(_ context.Context, id uuid.UUID) (*directory.Dentist, error) {
	if d, ok := s.dentists[id]; ok {
		return d, nil
	}
	return nil, directory.ErrDentistNotFound
}

func (s *stubDirectory) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	if p, ok := s.patients[id]; ok {
		return p, nil
	}
	return nil, directory.ErrPatientNotFound
}

type stubClinics struct{ clinic *clinics.Clinic }

func (s *stubClinics) Get(_ context.Context, _ string) (*clinics.Clinic, error) {
	return s.clinic, nil
}

// memLedger reproduces the repository's commit semantics in memory: a create
// re-checks the live entries and rejects overlaps.
type memLedger struct {
	appts []appointments.Appointment
}

func (l *memLedger) ListActiveForDay(_ context.Context, dentistID uuid.UUID, date time.Time) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range l.appts {
		if a.DentistID == dentistID && a.Date.Equal(date) && a.Status != appointments.StatusCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (l *memLedger) Create(ctx context.Context, appt *appointments.Appointment) (*appointments.Appointment, error) {
	existing, _ := l.ListActiveForDay(ctx, appt.DentistID, appt.Date)
	entries := make([]scheduling.LedgerEntry, len(existing))
	for i, a := range existing {
		entries[i] = scheduling.LedgerEntry{StartMinute: a.StartMinute, DurationMinutes: a.DurationMinutes}
	}
	requested := scheduling.Interval{StartMinute: appt.StartMinute, DurationMinutes: appt.DurationMinutes}
	if conflict, ok := scheduling.FindConflict(requested, entries); ok {
		return nil, &scheduling.ConflictError{Conflicting: conflict}
	}
	appt.ID = uuid.New()
	appt.CreatedAt = time.Now().UTC()
	l.appts = append(l.appts, *appt)
	return appt, nil
}

type stubEvents struct {
	types    []string
	payloads []any
}

func (s *stubEvents) Insert(_ context.Context, _ string, eventType string, payload any) (uuid.UUID, error) {
	s.types = append(s.types, eventType)
	s.payloads = append(s.payloads, payload)
	return uuid.New(), nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := scheduling.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

type fixture struct {
	svc       *Service
	windows   *stubWindows
	ledger    *memLedger
	events    *stubEvents
	dentistID uuid.UUID
	patientID uuid.UUID
	serviceID uuid.UUID
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	dentistID := uuid.New()
	patientID := uuid.New()
	serviceID := uuid.New()

	windows := &stubWindows{hasWindow: true}
	ledger := &memLedger{}
	recorder := &stubEvents{}

	svc := NewService(Deps{
		Windows: windows,
		Catalog: &stubCatalog{services: map[uuid.UUID]*catalog.Service{
			serviceID: {ID: serviceID, Name: "Cleaning", DurationMinutes: 30},
		}},
		People: &stubDirectory{
			dentists: map[uuid.UUID]*directory.Dentist{dentistID: {ID: dentistID, Name: "Dr. Okafor"}},
			patients: map[uuid.UUID]*directory.Patient{patientID: {ID: patientID, Name: "Ana Ruiz"}},
		},
		Clinics: &stubClinics{clinic: &clinics.Clinic{
			ID:          "clinic-1",
			OpenMinute:  10 * 60,
			CloseMinute: 20 * 60,
		}},
		Ledger:      ledger,
		Events:      recorder,
		Clock:       fixedClock{now: now},
		HorizonDays: 90,
	})

	return &fixture{
		svc:       svc,
		windows:   windows,
		ledger:    ledger,
		events:    recorder,
		dentistID: dentistID,
		patientID: patientID,
		serviceID: serviceID,
	}
}

func TestBookingFlowEndToEnd(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fx := newFixture(t, now)
	ctx := context.Background()
	date := mustDate(t, "2026-03-10")

	slots, err := fx.svc.CandidateSlots(ctx, "clinic-1", fx.dentistID, fx.serviceID, date)
	if err != nil {
		t.Fatalf("CandidateSlots failed: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected 20 candidate slots, got %d", len(slots))
	}
	if slots[0].StartMinute != 600 || slots[0].Label != "10:00 AM" {
		t.Errorf("first slot = %+v, want 10:00 AM", slots[0])
	}
	if last := slots[len(slots)-1]; last.StartMinute != 1170 || last.Label != "7:30 PM" {
		t.Errorf("last slot = %+v, want 7:30 PM", last)
	}
	for _, s := range slots {
		if s.Booked {
			t.Fatalf("slot %s unexpectedly booked on empty ledger", scheduling.FormatMinute(s.StartMinute))
		}
	}

	created, err := fx.svc.CreateBooking(ctx, "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   fx.patientID,
		ServiceID:   fx.serviceID,
		Date:        date,
		StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if created.Status != appointments.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", created.Status)
	}
	if created.DurationMinutes != 30 {
		t.Errorf("duration = %d, want 30 (resolved from service)", created.DurationMinutes)
	}

	slots, err = fx.svc.CandidateSlots(ctx, "clinic-1", fx.dentistID, fx.serviceID, date)
	if err != nil {
		t.Fatalf("CandidateSlots after booking failed: %v", err)
	}
	if !slots[0].Booked {
		t.Errorf("10:00 slot should be marked booked")
	}
	if slots[1].Booked {
		t.Errorf("10:30 slot should remain free")
	}

	_, err = fx.svc.CreateBooking(ctx, "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   fx.patientID,
		ServiceID:   fx.serviceID,
		Date:        date,
		StartMinute: 600,
	})
	var conflict *scheduling.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Conflicting.StartMinute != 600 || conflict.Conflicting.EndMinute() != 630 {
		t.Errorf("conflicting interval = [%d, %d), want [600, 630)",
			conflict.Conflicting.StartMinute, conflict.Conflicting.EndMinute())
	}

	if len(fx.events.types) != 1 || fx.events.types[0] != "booking.created" {
		t.Errorf("expected one booking.created event, got %v", fx.events.types)
	}
}

func TestCandidateSlotsReadIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fx := newFixture(t, now)
	ctx := context.Background()
	date := mustDate(t, "2026-03-10")

	first, err := fx.svc.CandidateSlots(ctx, "clinic-1", fx.dentistID, fx.serviceID, date)
	if err != nil {
		t.Fatalf("CandidateSlots failed: %v", err)
	}
	second, err := fx.svc.CandidateSlots(ctx, "clinic-1", fx.dentistID, fx.serviceID, date)
	if err != nil {
		t.Fatalf("CandidateSlots failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeated reads differ: %d vs %d slots", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("slot %d differs across reads: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCandidateSlotsNoWindow(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	fx.windows.hasWindow = false

	_, err := fx.svc.CandidateSlots(context.Background(), "clinic-1", fx.dentistID, fx.serviceID, mustDate(t, "2026-03-10"))
	var availErr *scheduling.AvailabilityError
	if !errors.As(err, &availErr) {
		t.Fatalf("expected AvailabilityError, got %v", err)
	}
}

func TestCandidateSlotsUnknownService(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.CandidateSlots(context.Background(), "clinic-1", fx.dentistID, uuid.New(), mustDate(t, "2026-03-10"))
	var notFound *scheduling.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Resource != "service" {
		t.Errorf("resource = %s, want service", notFound.Resource)
	}
}

func TestCreateBookingUnknownPatient(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.CreateBooking(context.Background(), "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   uuid.New(),
		ServiceID:   fx.serviceID,
		Date:        mustDate(t, "2026-03-10"),
		StartMinute: 600,
	})
	var notFound *scheduling.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Resource != "patient" {
		t.Errorf("resource = %s, want patient", notFound.Resource)
	}
}

func TestCreateBookingNoWindow(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	fx.windows.hasWindow = false

	_, err := fx.svc.CreateBooking(context.Background(), "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   fx.patientID,
		ServiceID:   fx.serviceID,
		Date:        mustDate(t, "2026-03-10"),
		StartMinute: 600,
	})
	var availErr *scheduling.AvailabilityError
	if !errors.As(err, &availErr) {
		t.Fatalf("expected AvailabilityError, got %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	date := mustDate(t, "2026-03-10")

	tests := []struct {
		name     string
		clinicID string
		params   CreateBookingParams
		field    string
	}{
		{
			name:   "missing clinic",
			params: CreateBookingParams{DentistID: fx.dentistID, PatientID: fx.patientID, ServiceID: fx.serviceID, Date: date, StartMinute: 600},
			field:  "clinic_id",
		},
		{
			name:     "missing dentist",
			clinicID: "clinic-1",
			params:   CreateBookingParams{PatientID: fx.patientID, ServiceID: fx.serviceID, Date: date, StartMinute: 600},
			field:    "dentist_id",
		},
		{
			name:     "missing date",
			clinicID: "clinic-1",
			params:   CreateBookingParams{DentistID: fx.dentistID, PatientID: fx.patientID, ServiceID: fx.serviceID, StartMinute: 600},
			field:    "date",
		},
		{
			name:     "start out of range",
			clinicID: "clinic-1",
			params:   CreateBookingParams{DentistID: fx.dentistID, PatientID: fx.patientID, ServiceID: fx.serviceID, Date: date, StartMinute: 1500},
			field:    "time",
		},
		{
			name:     "terminal initial status",
			clinicID: "clinic-1",
			params:   CreateBookingParams{DentistID: fx.dentistID, PatientID: fx.patientID, ServiceID: fx.serviceID, Date: date, StartMinute: 600, Status: appointments.StatusCompleted},
			field:    "status",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.CreateBooking(context.Background(), tc.clinicID, tc.params)
			var vErr *scheduling.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Errorf("field = %s, want %s", vErr.Field, tc.field)
			}
		})
	}
}

func TestCreateBookingAcceptsPendingStatus(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	created, err := fx.svc.CreateBooking(context.Background(), "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   fx.patientID,
		ServiceID:   fx.serviceID,
		Date:        mustDate(t, "2026-03-10"),
		StartMinute: 600,
		Status:      appointments.StatusPending,
	})
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if created.Status != appointments.StatusPending {
		t.Errorf("status = %s, want pending", created.Status)
	}
}

func TestAvailableDatesClampsToHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fx := newFixture(t, now)

	_, err := fx.svc.AvailableDates(context.Background(), fx.dentistID,
		mustDate(t, "2026-02-01"), mustDate(t, "2027-01-01"))
	if err != nil {
		t.Fatalf("AvailableDates failed: %v", err)
	}
	if got := scheduling.FormatDate(fx.windows.gotFrom); got != "2026-03-01" {
		t.Errorf("from clamped to %s, want 2026-03-01", got)
	}
	if got := scheduling.FormatDate(fx.windows.gotTo); got != "2026-05-30" {
		t.Errorf("to clamped to %s, want 2026-05-30", got)
	}
}

func TestAvailableDatesDefaultsToFullHorizon(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fx := newFixture(t, now)

	_, err := fx.svc.AvailableDates(context.Background(), fx.dentistID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("AvailableDates failed: %v", err)
	}
	if got := scheduling.FormatDate(fx.windows.gotFrom); got != "2026-03-01" {
		t.Errorf("default from = %s, want 2026-03-01", got)
	}
	if got := scheduling.FormatDate(fx.windows.gotTo); got != "2026-05-30" {
		t.Errorf("default to = %s, want 2026-05-30", got)
	}
}

func TestAvailableDatesInvertedRange(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.AvailableDates(context.Background(), fx.dentistID,
		mustDate(t, "2026-04-01"), mustDate(t, "2026-03-01"))
	var vErr *scheduling.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAvailableDatesUnknownDentist(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	_, err := fx.svc.AvailableDates(context.Background(), uuid.New(), time.Time{}, time.Time{})
	var notFound *scheduling.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if fx.windows.queryCalls != 0 {
		t.Errorf("window store queried for unknown dentist")
	}
}

func TestBookedSlotsAppliesFallbackDuration(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	date := mustDate(t, "2026-03-10")
	fx.ledger.appts = append(fx.ledger.appts, appointments.Appointment{
		ID:          uuid.New(),
		DentistID:   fx.dentistID,
		Date:        date,
		StartMinute: 660,
		Status:      appointments.StatusConfirmed,
		// duration missing: legacy row
	})

	slots, err := fx.svc.BookedSlots(context.Background(), fx.dentistID, date)
	if err != nil {
		t.Fatalf("BookedSlots failed: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 booked slot, got %d", len(slots))
	}
	if slots[0].DurationMinutes != scheduling.FallbackDurationMinutes {
		t.Errorf("duration = %d, want fallback %d", slots[0].DurationMinutes, scheduling.FallbackDurationMinutes)
	}
}

func TestBookedSlotsIgnoresCancelled(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	date := mustDate(t, "2026-03-10")
	fx.ledger.appts = append(fx.ledger.appts,
		appointments.Appointment{ID: uuid.New(), DentistID: fx.dentistID, Date: date, StartMinute: 600, DurationMinutes: 30, Status: appointments.StatusCancelled},
		appointments.Appointment{ID: uuid.New(), DentistID: fx.dentistID, Date: date, StartMinute: 720, DurationMinutes: 30, Status: appointments.StatusConfirmed},
	)

	slots, err := fx.svc.BookedSlots(context.Background(), fx.dentistID, date)
	if err != nil {
		t.Fatalf("BookedSlots failed: %v", err)
	}
	if len(slots) != 1 || slots[0].StartMinute != 720 {
		t.Errorf("slots = %+v, want only the 12:00 confirmed booking", slots)
	}
}

func TestCancelledSlotIsRebookable(t *testing.T) {
	fx := newFixture(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	date := mustDate(t, "2026-03-10")
	fx.ledger.appts = append(fx.ledger.appts, appointments.Appointment{
		ID: uuid.New(), DentistID: fx.dentistID, Date: date,
		StartMinute: 600, DurationMinutes: 30, Status: appointments.StatusCancelled,
	})

	created, err := fx.svc.CreateBooking(context.Background(), "clinic-1", CreateBookingParams{
		DentistID:   fx.dentistID,
		PatientID:   fx.patientID,
		ServiceID:   fx.serviceID,
		Date:        date,
		StartMinute: 600,
	})
	if err != nil {
		t.Fatalf("rebooking a cancelled slot failed: %v", err)
	}
	if created.StartMinute != 600 {
		t.Errorf("start = %d, want 600", created.StartMinute)
	}
}
