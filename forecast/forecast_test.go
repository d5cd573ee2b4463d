package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) generic.Date {
	return generic.NewDate(y, m, d)
}

func newCalculator() *forecast.Calculator {
	return forecast.NewCalculator(rank.DefaultTable())
}

func officer(id string, r rank.Rank, last string) forecast.Input {
	return forecast.Input{MemberID: generic.MemberID(id), Rank: r, LastPromotionDate: last, IsOfficer: true}
}

func enlisted(id string, r rank.Rank, last string) forecast.Input {
	return forecast.Input{MemberID: generic.MemberID(id), Rank: r, LastPromotionDate: last}
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculate_SecondLieutenant(t *testing.T) {
	// GIVEN: A 2º Tenente last promoted on 2023-01-15 (2 years, seniority)
	// WHEN: Forecasting on 2024-06-01
	// THEN: Eligible on 2025-01-15 for 1º Tenente, "7 meses" remaining

	f, err := newCalculator().Calculate(officer("m-1", rank.SegundoTenente, "2023-01-15"), at(2024, time.June, 1))
	require.NoError(t, err)

	require.NotNil(t, f.NextRank)
	assert.Equal(t, rank.PrimeiroTenente, *f.NextRank)
	require.NotNil(t, f.NextEligibleDate)
	assert.Equal(t, date(2025, time.January, 15), *f.NextEligibleDate)
	assert.Equal(t, rank.Seniority, f.Criterion)
	assert.Equal(t, 228, f.DaysRemaining)
	assert.Equal(t, 7, f.MonthsRemaining)
	assert.Equal(t, "7 meses", f.RemainingLabel)
	assert.False(t, f.Eligible())
}

func TestCalculate_CeilingRank(t *testing.T) {
	// GIVEN: A Coronel, top of the officer hierarchy
	// WHEN: Forecasting
	// THEN: No next rank or date, label "N/A"

	f, err := newCalculator().Calculate(officer("m-1", rank.Coronel, "2010-03-01"), at(2024, time.June, 1))
	require.NoError(t, err)

	assert.Nil(t, f.NextRank)
	assert.Nil(t, f.NextEligibleDate)
	assert.Equal(t, forecast.LabelNotApplicable, f.RemainingLabel)
	assert.Equal(t, rank.RankCeiling, f.Criterion)
	assert.False(t, f.Eligible())

	f, err = newCalculator().Calculate(enlisted("m-2", rank.Subtenente, "2010-03-01"), at(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, "N/A", f.RemainingLabel)
}

func TestCalculate_AlreadyEligible(t *testing.T) {
	f, err := newCalculator().Calculate(officer("m-1", rank.Capitao, "2019-01-01"), at(2024, time.June, 1))
	require.NoError(t, err)

	assert.Equal(t, date(2023, time.January, 1), *f.NextEligibleDate)
	assert.Equal(t, forecast.LabelAvailable, f.RemainingLabel)
	assert.Equal(t, rank.Merit, f.Criterion)
	assert.True(t, f.Eligible())
}

func TestCalculate_OnEligibleDate(t *testing.T) {
	// GIVEN: The reference day is the eligible date itself
	// THEN: Zero days remain; the member becomes eligible the next day

	calc := newCalculator()
	in := enlisted("m-1", rank.Cabo, "2021-06-01")

	f, err := calc.Calculate(in, at(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, f.DaysRemaining)
	assert.Equal(t, "0 dias", f.RemainingLabel)
	assert.False(t, f.Eligible())

	f, err = calc.Calculate(in, at(2024, time.June, 2))
	require.NoError(t, err)
	assert.Equal(t, forecast.LabelAvailable, f.RemainingLabel)
	assert.True(t, f.Eligible())
}

func TestCalculate_YearsAndMonths(t *testing.T) {
	f, err := newCalculator().Calculate(enlisted("m-1", rank.Soldado, "2024-01-01"), at(2024, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2029, time.January, 1), *f.NextEligibleDate)
	assert.Equal(t, "4 anos e 7 meses", f.RemainingLabel)
}

func TestCalculate_LeapDayPromotion(t *testing.T) {
	// GIVEN: A Cabo promoted on Feb 29 (3 years in rank)
	// WHEN: Forecasting
	// THEN: Eligible on Mar 1 of the non-leap target year

	f, err := newCalculator().Calculate(enlisted("m-1", rank.Cabo, "2020-02-29"), at(2022, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, date(2023, time.March, 1), *f.NextEligibleDate)
	assert.Equal(t, date(2023, time.March, 1), forecast.EligibleDate(date(2020, time.February, 29), mustRule(t, rank.Cabo, false)))
}

func mustRule(t *testing.T, r rank.Rank, officer bool) rank.Rule {
	t.Helper()
	rule, err := rank.DefaultTable().RuleFor(r, officer)
	require.NoError(t, err)
	return rule
}

func TestCalculate_InvalidDate(t *testing.T) {
	// GIVEN: A stored date that cannot be parsed
	// WHEN: Forecasting
	// THEN: InvalidDateError, never a silent default

	for _, last := range []string{"", "31/02/2020", "2020-13-01"} {
		_, err := newCalculator().Calculate(officer("m-1", rank.Major, last), at(2024, time.June, 1))
		require.Error(t, err, last)
		assert.ErrorIs(t, err, generic.ErrInvalidDate, last)
		assert.True(t, generic.IsDataIntegrity(err))
	}
}

func TestCalculate_RankOutsideHierarchy(t *testing.T) {
	// GIVEN: An enlisted rank on an officer corps
	// THEN: UnknownRankError

	_, err := newCalculator().Calculate(officer("m-1", rank.Cabo, "2020-01-01"), at(2024, time.June, 1))
	assert.ErrorIs(t, err, rank.ErrUnknownRank)

	_, err = newCalculator().Calculate(enlisted("m-1", rank.Rank(99), "2020-01-01"), at(2024, time.June, 1))
	assert.ErrorIs(t, err, rank.ErrUnknownRank)
}

func TestCalculate_ZeroNowUsesClock(t *testing.T) {
	calc := newCalculator()
	calc.Clock = func() time.Time { return at(2024, time.June, 1) }

	f, err := calc.Calculate(officer("m-1", rank.SegundoTenente, "2023-01-15"), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "7 meses", f.RemainingLabel)
}

func TestCalculate_DayFollowsReferenceLocation(t *testing.T) {
	// GIVEN: 23:00 on May 31 in São Paulo (02:00 June 1 UTC)
	// THEN: The forecast is evaluated on May 31

	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, time.May, 31, 23, 0, 0, 0, loc)

	f, err := newCalculator().Calculate(enlisted("m-1", rank.Cabo, "2021-06-01"), now)
	require.NoError(t, err)
	assert.Equal(t, 1, f.DaysRemaining)
	assert.Equal(t, "1 dia", f.RemainingLabel)
}

func TestCalculate_Idempotent(t *testing.T) {
	calc := newCalculator()
	in := officer("m-1", rank.Major, "2022-08-20")
	now := at(2024, time.June, 1)

	a, err := calc.Calculate(in, now)
	require.NoError(t, err)
	b, err := calc.Calculate(in, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// =============================================================================
// LABEL
// =============================================================================

func TestRemainingLabel(t *testing.T) {
	tests := []struct {
		days, months int
		want         string
	}{
		{-1, 0, "Promoção disponível"},
		{-400, -13, "Promoção disponível"},
		{0, 0, "0 dias"},
		{1, 0, "1 dia"},
		{29, 0, "29 dias"},
		{31, 1, "1 mês"},
		{200, 6, "6 meses"},
		{360, 11, "11 meses"},
		{366, 12, "1 ano e 0 meses"},
		{400, 13, "1 ano e 1 mês"},
		{800, 26, "2 anos e 2 meses"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, forecast.RemainingLabel(tt.days, tt.months), "days=%d months=%d", tt.days, tt.months)
	}
}

func TestRemainingLabel_MonotonicAsDaysPass(t *testing.T) {
	// GIVEN: A fixed eligible date
	// WHEN: The reference date advances one day at a time
	// THEN: The label bucket only moves years -> months -> days -> available

	bucket := func(f forecast.Forecast) int {
		switch {
		case f.Eligible():
			return 3
		case f.MonthsRemaining < 1:
			return 2
		case f.MonthsRemaining < 12:
			return 1
		}
		return 0
	}

	calc := newCalculator()
	in := enlisted("m-1", rank.Soldado, "2020-03-31")
	prevBucket, prevMonths, prevDays := -1, 1<<30, 1<<30
	for now := at(2021, time.January, 1); now.Before(at(2025, time.June, 1)); now = now.AddDate(0, 0, 1) {
		f, err := calc.Calculate(in, now)
		require.NoError(t, err)
		b := bucket(f)
		require.GreaterOrEqual(t, b, prevBucket, "on %s", now.Format(time.DateOnly))
		require.LessOrEqual(t, f.MonthsRemaining, prevMonths, "on %s", now.Format(time.DateOnly))
		require.Less(t, f.DaysRemaining, prevDays, "on %s", now.Format(time.DateOnly))
		prevBucket, prevMonths, prevDays = b, f.MonthsRemaining, f.DaysRemaining
	}
	assert.Equal(t, 3, prevBucket)
}
