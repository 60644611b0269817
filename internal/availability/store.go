// Package availability reads per-dentist open windows. Windows are maintained
// by clinic management elsewhere; this package is read-only over them.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Window is a dentist's bookable hours on one calendar day.
// Invariant: StartMinute < EndMinute.
type Window struct {
	ID          uuid.UUID
	DentistID   uuid.UUID
	Date        time.Time
	StartMinute int
	EndMinute   int
}

type queryDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads availability windows from the relational database.
type PostgresStore struct {
	db queryDB
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db queryDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DatesWithWindows returns the distinct dates in [from, to] for which the
// dentist has at least one configured window, ascending.
func (s *PostgresStore) DatesWithWindows(ctx context.Context, dentistID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date
		FROM availability_windows
		WHERE dentist_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`
	rows, err := s.db.Query(ctx, query, dentistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("availability: select dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("availability: scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// WindowsForDay returns the dentist's windows on one date, ascending by start.
func (s *PostgresStore) WindowsForDay(ctx context.Context, dentistID uuid.UUID, date time.Time) ([]Window, error) {
	query := `
		SELECT id, dentist_id, date, start_minute, end_minute
		FROM availability_windows
		WHERE dentist_id = $1 AND date = $2
		ORDER BY start_minute
	`
	rows, err := s.db.Query(ctx, query, dentistID, date)
	if err != nil {
		return nil, fmt.Errorf("availability: select windows: %w", err)
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var w Window
		if err := rows.Scan(&w.ID, &w.DentistID, &w.Date, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, fmt.Errorf("availability: scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// HasWindow reports whether the dentist has any configured window on the date.
func (s *PostgresStore) HasWindow(ctx context.Context, dentistID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM availability_windows WHERE dentist_id = $1 AND date = $2
		)
	`
	var exists bool
	if err := s.db.QueryRow(ctx, query, dentistID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("availability: check window: %w", err)
	}
	return exists, nil
}
