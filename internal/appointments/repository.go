package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novadent/dental-portal/internal/scheduling"
)

var (
	// ErrAppointmentNotFound is returned when an appointment id does not exist.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrStatusTerminal is returned when a transition is attempted out of a
	// terminal state.
	ErrStatusTerminal = errors.New("appointments: status is terminal")
)

// pgxExclusionViolation is raised by the appointments_no_overlap constraint.
const pgxExclusionViolation = "23P01"

type pgDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for the booking ledger.
type Repository struct {
	db pgDB
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for tests.
func NewRepositoryWithDB(db pgDB) *Repository {
	return &Repository{db: db}
}

const activeForDayQuery = `
	SELECT id, clinic_id, dentist_id, patient_id, service_id,
	       date, start_minute, duration_minutes, status, notes, created_at
	FROM appointments
	WHERE dentist_id = $1 AND date = $2 AND status <> 'cancelled'
	ORDER BY start_minute
`

// ListActiveForDay returns the non-cancelled ledger entries for one dentist
// and date, ascending by start time.
func (r *Repository) ListActiveForDay(ctx context.Context, dentistID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, activeForDayQuery, dentistID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: select active: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// Create inserts a new ledger entry after re-validating the requested interval
// against the live ledger. The read-check-write sequence runs inside one
// transaction serialized per (dentist, date) by an advisory lock; the
// appointments_no_overlap exclusion constraint backstops anything that slips
// past it. Returns *scheduling.ConflictError when the interval is taken.
func (r *Repository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockKey := appt.DentistID.String() + "|" + appt.Date.Format("2006-01-02")
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return nil, fmt.Errorf("appointments: acquire schedule lock: %w", err)
	}

	rows, err := tx.Query(ctx, activeForDayQuery, appt.DentistID, appt.Date)
	if err != nil {
		return nil, fmt.Errorf("appointments: reload ledger: %w", err)
	}
	existing, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}

	requested := scheduling.Interval{StartMinute: appt.StartMinute, DurationMinutes: appt.DurationMinutes}
	if conflict, ok := scheduling.FindConflict(requested, toLedgerEntries(existing)); ok {
		return nil, &scheduling.ConflictError{Conflicting: conflict}
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	insert := `
		INSERT INTO appointments
			(id, clinic_id, dentist_id, patient_id, service_id,
			 date, start_minute, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, insert,
		appt.ID,
		appt.ClinicID,
		appt.DentistID,
		appt.PatientID,
		appt.ServiceID,
		appt.Date,
		appt.StartMinute,
		appt.DurationMinutes,
		appt.Status,
		appt.Notes,
	).Scan(&appt.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgxExclusionViolation {
			return nil, &scheduling.ConflictError{Conflicting: requested}
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit: %w", err)
	}
	return appt, nil
}

// UpdateStatus transitions a pending or confirmed appointment. Terminal
// states never transition again.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	if !next.Valid() || next == StatusPending {
		return nil, fmt.Errorf("appointments: invalid target status %q", next)
	}

	query := `
		UPDATE appointments
		SET status = $2
		WHERE id = $1 AND status IN ('pending', 'confirmed')
		RETURNING id, clinic_id, dentist_id, patient_id, service_id,
		          date, start_minute, duration_minutes, status, notes, created_at
	`
	var a Appointment
	err := r.db.QueryRow(ctx, query, id, next).Scan(
		&a.ID, &a.ClinicID, &a.DentistID, &a.PatientID, &a.ServiceID,
		&a.Date, &a.StartMinute, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt,
	)
	if err == nil {
		return &a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}

	// Distinguish a missing row from one already in a terminal state.
	var current Status
	err = r.db.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load status: %w", err)
	}
	return nil, ErrStatusTerminal
}

// GetByID fetches one appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `
		SELECT id, clinic_id, dentist_id, patient_id, service_id,
		       date, start_minute, duration_minutes, status, notes, created_at
		FROM appointments
		WHERE id = $1
	`
	var a Appointment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.ClinicID, &a.DentistID, &a.PatientID, &a.ServiceID,
		&a.Date, &a.StartMinute, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: select by id: %w", err)
	}
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.ClinicID, &a.DentistID, &a.PatientID, &a.ServiceID,
			&a.Date, &a.StartMinute, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func toLedgerEntries(appts []Appointment) []scheduling.LedgerEntry {
	entries := make([]scheduling.LedgerEntry, len(appts))
	for i, a := range appts {
		entries[i] = scheduling.LedgerEntry{
			StartMinute:     a.StartMinute,
			DurationMinutes: a.DurationMinutes,
		}
	}
	return entries
}
