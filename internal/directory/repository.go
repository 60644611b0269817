// Package directory reads the dentist/staff and patient registries. Both are
// owned by people-management elsewhere; the scheduling service only validates
// references and labels output.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDentistNotFound is returned when a dentist id does not exist.
	ErrDentistNotFound = errors.New("directory: dentist not found")

	// ErrPatientNotFound is returned when a patient id does not exist.
	ErrPatientNotFound = errors.New("directory: patient not found")
)

// Dentist is a bookable member of the clinical staff.
type Dentist struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

// Patient identifies who an appointment is for.
type Patient struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type queryDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the registries from the relational database.
type PostgresRepository struct {
	db queryDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db queryDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetDentist fetches a dentist by id.
func (r *PostgresRepository) GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	query := `
		SELECT id, name, role
		FROM dentists
		WHERE id = $1
	`
	var d Dentist
	if err := r.db.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, fmt.Errorf("directory: select dentist: %w", err)
	}
	return &d, nil
}

// GetPatient fetches a patient by id.
func (r *PostgresRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `
		SELECT id, name
		FROM patients
		WHERE id = $1
	`
	var p Patient
	if err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory: select patient: %w", err)
	}
	return &p, nil
}
