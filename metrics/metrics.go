// Package metrics exposes Prometheus instrumentation for the promotion engine.
// Every method is safe on a nil *Metrics so callers can run uninstrumented.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// Forecasts computed, by corps
	ForecastsComputed *prometheus.CounterVec

	// Members skipped in a forecast batch, by reason
	ForecastsSkipped *prometheus.CounterVec

	// Batch forecast latency
	BatchLatency prometheus.Histogram

	// Vacancy reports built
	VacancyReports prometheus.Counter

	// Census entries without a seat configuration, by corps
	SeatConfigIssues *prometheus.CounterVec

	// Roster changes by operation
	RosterChanges *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh registry so tests can call New repeatedly.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ForecastsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_forecasts_computed_total",
			Help: "Promotion forecasts computed",
		}, []string{"corps"}),

		ForecastsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_forecasts_skipped_total",
			Help: "Members left out of a forecast batch by reason",
		}, []string{"reason"}), // reason: "invalid_date", "unknown_rank", "unknown_corps", "other"

		BatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promotions_forecast_batch_duration_seconds",
			Help:    "Duration of a roster forecast batch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		VacancyReports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "promotions_vacancy_reports_total",
			Help: "Vacancy reports built",
		}),

		SeatConfigIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_seat_config_issues_total",
			Help: "Census entries a capped corps has no seats for",
		}, []string{"corps"}),

		RosterChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_roster_changes_total",
			Help: "Roster changes by operation",
		}, []string{"op"}), // op: "create", "update", "deactivate", "promote", "event"
	}
	reg.MustRegister(
		m.ForecastsComputed,
		m.ForecastsSkipped,
		m.BatchLatency,
		m.VacancyReports,
		m.SeatConfigIssues,
		m.RosterChanges,
	)
	return m
}

func (m *Metrics) IncForecast(corps string) {
	if m != nil {
		m.ForecastsComputed.WithLabelValues(corps).Inc()
	}
}

func (m *Metrics) IncSkipped(reason string) {
	if m != nil {
		m.ForecastsSkipped.WithLabelValues(reason).Inc()
	}
}

// ObserveBatch records the duration of one batch forecast.
func (m *Metrics) ObserveBatch(d time.Duration) {
	if m != nil {
		m.BatchLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncVacancyReport() {
	if m != nil {
		m.VacancyReports.Inc()
	}
}

func (m *Metrics) AddSeatConfigIssues(corps string, n int) {
	if m != nil && n > 0 {
		m.SeatConfigIssues.WithLabelValues(corps).Add(float64(n))
	}
}

func (m *Metrics) IncRosterChange(op string) {
	if m != nil {
		m.RosterChanges.WithLabelValues(op).Inc()
	}
}
