package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the booking engine.
type SchedulingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	fallbackTotal  prometheus.Counter
	slotGenSeconds prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "scheduling",
			Name:      "booking_conflicts_total",
			Help:      "Bookings rejected because the interval was already taken",
		}),
		fallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "scheduling",
			Name:      "duration_fallback_total",
			Help:      "Ledger entries whose service duration fell back to the default",
		}),
		slotGenSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "scheduling",
			Name:      "slot_generation_seconds",
			Help:      "Latency of candidate slot generation including ledger load",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.fallbackTotal, m.slotGenSeconds)
	return m
}

// ObserveBooking records a booking attempt outcome (created, conflict,
// validation_error, not_found, no_availability, error).
func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

// ObserveDurationFallback counts ledger entries that needed the fallback
// duration during a conflict check.
func (m *SchedulingMetrics) ObserveDurationFallback(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fallbackTotal.Add(float64(n))
}

func (m *SchedulingMetrics) ObserveSlotGeneration(seconds float64) {
	if m == nil {
		return
	}
	m.slotGenSeconds.Observe(seconds)
}
