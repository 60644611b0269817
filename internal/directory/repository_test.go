package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestGetDentist(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, name, role\s+FROM dentists`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "role"}).
			AddRow(id, "Dr. Okafor", "dentist"))

	repo := NewPostgresRepositoryWithDB(mock)
	d, err := repo.GetDentist(context.Background(), id)
	if err != nil {
		t.Fatalf("GetDentist failed: %v", err)
	}
	if d.Name != "Dr. Okafor" || d.Role != "dentist" {
		t.Errorf("dentist = %+v", d)
	}
}

func TestGetDentist_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, name, role\s+FROM dentists`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.GetDentist(context.Background(), id); !errors.Is(err, ErrDentistNotFound) {
		t.Errorf("err = %v, want ErrDentistNotFound", err)
	}
}

func TestGetPatient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, name\s+FROM patients`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(id, "Maya Chen"))

	repo := NewPostgresRepositoryWithDB(mock)
	p, err := repo.GetPatient(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if p.Name != "Maya Chen" {
		t.Errorf("patient = %+v", p)
	}
}

func TestGetPatient_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT id, name\s+FROM patients`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.GetPatient(context.Background(), id); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("err = %v, want ErrPatientNotFound", err)
	}
}
