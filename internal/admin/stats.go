// Package admin serves the staff reporting endpoints. These read-only views
// run on database/sql against read replicas, separate from the pgx pool that
// backs the booking write path.
package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/novadent/dental-portal/pkg/logging"
)

// StatsHandler serves booking statistics for clinic staff.
type StatsHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(db *sql.DB, logger *logging.Logger) *StatsHandler {
	if db == nil {
		panic("admin: database required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{db: db, logger: logger}
}

// BookingStatsResponse summarizes one clinic's ledger.
type BookingStatsResponse struct {
	ClinicID       string         `json:"clinic_id"`
	Period         string         `json:"period"`
	Total          int            `json:"total"`
	Upcoming       int            `json:"upcoming"`
	ByStatus       map[string]int `json:"by_status"`
	BusiestDentist string         `json:"busiest_dentist,omitempty"`
	FillRate       float64        `json:"fill_rate"`
}

// GetBookingStats returns booking counts for a clinic.
// GET /admin/clinics/{clinicID}/booking-stats?period=week|month|all
func (h *StatsHandler) GetBookingStats(w http.ResponseWriter, r *http.Request) {
	clinicID := chi.URLParam(r, "clinicID")
	if clinicID == "" {
		http.Error(w, "missing clinicID", http.StatusBadRequest)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	since, ok := periodStart(period, time.Now())
	if !ok {
		http.Error(w, "period must be week, month or all", http.StatusBadRequest)
		return
	}

	stats := BookingStatsResponse{
		ClinicID: clinicID,
		Period:   period,
		ByStatus: map[string]int{},
	}

	ctx := r.Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND created_at >= $2`,
		clinicID, since,
	).Scan(&stats.Total); err != nil {
		h.logger.Error("booking stats query failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to load booking stats", http.StatusInternalServerError)
		return
	}

	if err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments
		 WHERE clinic_id = $1 AND date >= $2 AND status IN ('pending', 'confirmed')`,
		clinicID, today,
	).Scan(&stats.Upcoming); err != nil {
		h.logger.Error("booking stats query failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to load booking stats", http.StatusInternalServerError)
		return
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM appointments
		 WHERE clinic_id = $1 AND created_at >= $2
		 GROUP BY status`,
		clinicID, since,
	)
	if err != nil {
		h.logger.Error("booking stats query failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to load booking stats", http.StatusInternalServerError)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			h.logger.Error("booking stats scan failed", "error", err, "clinic_id", clinicID)
			http.Error(w, "failed to load booking stats", http.StatusInternalServerError)
			return
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("booking stats query failed", "error", err, "clinic_id", clinicID)
		http.Error(w, "failed to load booking stats", http.StatusInternalServerError)
		return
	}

	// Best-effort extras; missing data just leaves the defaults.
	var busiest sql.NullString
	_ = h.db.QueryRowContext(ctx,
		`SELECT d.name FROM appointments a
		 JOIN dentists d ON d.id = a.dentist_id
		 WHERE a.clinic_id = $1 AND a.created_at >= $2 AND a.status <> 'cancelled'
		 GROUP BY d.name
		 ORDER BY COUNT(*) DESC
		 LIMIT 1`,
		clinicID, since,
	).Scan(&busiest)
	stats.BusiestDentist = busiest.String

	var bookedMinutes, windowMinutes sql.NullFloat64
	_ = h.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COALESCE(SUM(duration_minutes), 0) FROM appointments
			 WHERE clinic_id = $1 AND date >= $2 AND status <> 'cancelled'),
			(SELECT COALESCE(SUM(end_minute - start_minute), 0) FROM availability_windows w
			 JOIN dentists d ON d.id = w.dentist_id
			 WHERE d.clinic_id = $1 AND w.date >= $2)`,
		clinicID, since,
	).Scan(&bookedMinutes, &windowMinutes)
	if windowMinutes.Float64 > 0 {
		stats.FillRate = bookedMinutes.Float64 / windowMinutes.Float64
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "all":
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}
