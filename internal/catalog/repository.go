// Package catalog exposes the clinic's service offerings. Service duration is
// the unit of slot granularity for the scheduling engine.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrServiceNotFound is returned when a service id does not exist.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Service is a bookable treatment with its slot duration.
type Service struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	ColorTag        string    `json:"color_tag"`
}

type queryDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads the service catalog from the relational database.
type PostgresRepository struct {
	db queryDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db queryDB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetService fetches one service by id.
func (r *PostgresRepository) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	query := `
		SELECT id, name, duration_minutes, color_tag
		FROM services
		WHERE id = $1
	`
	var svc Service
	if err := r.db.QueryRow(ctx, query, id).Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.ColorTag); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: select service: %w", err)
	}
	return &svc, nil
}

// ListServices returns the full catalog, ascending by name.
func (r *PostgresRepository) ListServices(ctx context.Context) ([]Service, error) {
	query := `
		SELECT id, name, duration_minutes, color_tag
		FROM services
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: select services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.ColorTag); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}
