// Seeds a demo clinic with dentists, patients, services and two weeks of
// availability windows for local development.
//
// Usage: DATABASE_URL=... go run ./scripts/seed [clinic-id]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("Error: DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	clinicID := "demo-clinic"
	if len(os.Args) > 1 {
		clinicID = os.Args[1]
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Printf("Seeding clinic %q\n", clinicID)

	dentists := []struct {
		id   uuid.UUID
		name string
	}{
		{uuid.New(), "Dr. Amara Okafor"},
		{uuid.New(), "Dr. Luis Herrera"},
	}
	for _, d := range dentists {
		_, err := pool.Exec(ctx,
			`INSERT INTO dentists (id, clinic_id, name) VALUES ($1, $2, $3)`,
			d.id, clinicID, d.name)
		if err != nil {
			fmt.Printf("Error inserting dentist: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  dentist %s (%s)\n", d.name, d.id)
	}

	patients := []string{"Ana Ruiz", "Tom Becker", "Mei Lin"}
	for _, name := range patients {
		if _, err := pool.Exec(ctx,
			`INSERT INTO patients (id, clinic_id, name) VALUES ($1, $2, $3)`,
			uuid.New(), clinicID, name); err != nil {
			fmt.Printf("Error inserting patient: %v\n", err)
			os.Exit(1)
		}
	}

	services := []struct {
		name     string
		duration int
		color    string
	}{
		{"Cleaning", 30, "teal"},
		{"Checkup", 30, "blue"},
		{"Filling", 45, "amber"},
		{"Root Canal", 90, "red"},
	}
	for _, s := range services {
		id := uuid.New()
		if _, err := pool.Exec(ctx,
			`INSERT INTO services (id, name, duration_minutes, color_tag) VALUES ($1, $2, $3, $4)`,
			id, s.name, s.duration, s.color); err != nil {
			fmt.Printf("Error inserting service: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  service %s (%d min, %s)\n", s.name, s.duration, id)
	}

	// Weekday windows for the next 14 days, 10:00-20:00.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	windows := 0
	for day := 0; day < 14; day++ {
		date := today.AddDate(0, 0, day)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, d := range dentists {
			if _, err := pool.Exec(ctx,
				`INSERT INTO availability_windows (id, dentist_id, date, start_minute, end_minute)
				 VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), d.id, date, 10*60, 20*60); err != nil {
				fmt.Printf("Error inserting window: %v\n", err)
				os.Exit(1)
			}
			windows++
		}
	}

	fmt.Printf("Done: %d dentists, %d patients, %d services, %d windows\n",
		len(dentists), len(patients), len(services), windows)
}
