package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
)

func TestDatesWithWindows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	dentistID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT date\s+FROM availability_windows`).
		WithArgs(dentistID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"date"}).
			AddRow(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)).
			AddRow(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)))

	store := NewPostgresStoreWithDB(mock)
	dates, err := store.DatesWithWindows(context.Background(), dentistID, from, to)
	if err != nil {
		t.Fatalf("DatesWithWindows failed: %v", err)
	}

	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	if dates[0].Day() != 10 || dates[1].Day() != 11 {
		t.Errorf("dates = %v", dates)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDatesWithWindows_NoneConfigured(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	dentistID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT date\s+FROM availability_windows`).
		WithArgs(dentistID, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"date"}))

	store := NewPostgresStoreWithDB(mock)
	dates, err := store.DatesWithWindows(context.Background(), dentistID, from, to)
	if err != nil {
		t.Fatalf("DatesWithWindows failed: %v", err)
	}
	// No windows at all is an empty result, not an error.
	if len(dates) != 0 {
		t.Errorf("expected empty result, got %v", dates)
	}
}

func TestWindowsForDay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	dentistID := uuid.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	windowID := uuid.New()

	mock.ExpectQuery(`SELECT id, dentist_id, date, start_minute, end_minute\s+FROM availability_windows`).
		WithArgs(dentistID, date).
		WillReturnRows(pgxmock.NewRows([]string{"id", "dentist_id", "date", "start_minute", "end_minute"}).
			AddRow(windowID, dentistID, date, 600, 1200))

	store := NewPostgresStoreWithDB(mock)
	windows, err := store.WindowsForDay(context.Background(), dentistID, date)
	if err != nil {
		t.Fatalf("WindowsForDay failed: %v", err)
	}

	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].StartMinute != 600 || windows[0].EndMinute != 1200 {
		t.Errorf("window = %+v, want 600-1200", windows[0])
	}
}

func TestHasWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	dentistID := uuid.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(dentistID, date).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPostgresStoreWithDB(mock)
	ok, err := store.HasWindow(context.Background(), dentistID, date)
	if err != nil {
		t.Fatalf("HasWindow failed: %v", err)
	}
	if !ok {
		t.Errorf("expected window to exist")
	}
}
