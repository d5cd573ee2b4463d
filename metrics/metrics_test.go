package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm/promotion-engine/metrics"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.IncForecast("QOEM")
		m.IncSkipped("invalid_date")
		m.ObserveBatch(time.Millisecond)
		m.IncVacancyReport()
		m.AddSeatConfigIssues("QOE", 2)
		m.IncRosterChange("create")
	})
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.IncForecast("QOEM")
	m.IncForecast("QOEM")
	m.IncSkipped("unknown_rank")
	m.AddSeatConfigIssues("QOE", 3)
	m.AddSeatConfigIssues("QOE", 0)
	m.ObserveBatch(20 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ForecastsComputed.WithLabelValues("QOEM")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ForecastsSkipped.WithLabelValues("unknown_rank")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.SeatConfigIssues.WithLabelValues("QOE")))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP promotions_vacancy_reports_total Vacancy reports built
# TYPE promotions_vacancy_reports_total counter
promotions_vacancy_reports_total 0
`), "promotions_vacancy_reports_total")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "promotions_forecast_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New(nil)
		metrics.New(nil)
	})
}
