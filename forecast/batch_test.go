package forecast_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCalculateAll_SkipsAndReports(t *testing.T) {
	// GIVEN: A roster with one unparseable date and one rank outside its hierarchy
	// WHEN: Forecasting the whole roster
	// THEN: The valid members are computed, the others are skipped with their
	//       errors, and nothing aborts the batch

	inputs := []forecast.Input{
		officer("a", rank.SegundoTenente, "2023-01-15"),
		officer("b", rank.Major, "31/02/2020"),
		enlisted("c", rank.Cabo, "2021-06-01"),
		officer("d", rank.Soldado, "2020-01-01"),
		officer("e", rank.Coronel, "2015-01-01"),
	}

	result, err := newCalculator().CalculateAll(context.Background(), inputs, at(2024, time.June, 1), 2)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.June, 1), result.AsOf)
	require.Len(t, result.Forecasts, 3)
	assert.Equal(t, generic.MemberID("a"), result.Forecasts[0].MemberID)
	assert.Equal(t, generic.MemberID("c"), result.Forecasts[1].MemberID)
	assert.Equal(t, generic.MemberID("e"), result.Forecasts[2].MemberID)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, generic.MemberID("b"), result.Skipped[0].MemberID)
	assert.ErrorIs(t, result.Skipped[0], generic.ErrInvalidDate)
	assert.Equal(t, generic.MemberID("d"), result.Skipped[1].MemberID)
	assert.ErrorIs(t, result.Skipped[1], rank.ErrUnknownRank)
	assert.Contains(t, result.Skipped[0].Error(), "member b")
}

func TestCalculateAll_MatchesSequential(t *testing.T) {
	calc := newCalculator()
	now := at(2024, time.June, 1)

	var inputs []forecast.Input
	for i := 0; i < 200; i++ {
		last := date(2015, time.January, 1).AddDays(i * 17).String()
		if i%2 == 0 {
			inputs = append(inputs, officer(fmt.Sprintf("o-%03d", i), rank.InHierarchy(rank.Officer)[i%6], last))
		} else {
			inputs = append(inputs, enlisted(fmt.Sprintf("e-%03d", i), rank.InHierarchy(rank.Enlisted)[i%6], last))
		}
	}

	result, err := calc.CalculateAll(context.Background(), inputs, now, 8)
	require.NoError(t, err)
	require.Empty(t, result.Skipped)
	require.Len(t, result.Forecasts, len(inputs))

	for i, in := range inputs {
		want, err := calc.Calculate(in, now)
		require.NoError(t, err)
		assert.Equal(t, want, result.Forecasts[i])
	}
}

func TestCalculateAll_SingleReferenceInstant(t *testing.T) {
	// GIVEN: A clock that advances a day on every call
	// WHEN: Forecasting a batch with zero now
	// THEN: The clock is read once; every member uses the same day

	day := 0
	calc := newCalculator()
	calc.Clock = func() time.Time {
		day++
		return at(2024, time.June, day)
	}

	inputs := []forecast.Input{
		enlisted("a", rank.Cabo, "2021-06-01"),
		enlisted("b", rank.Cabo, "2021-06-01"),
		enlisted("c", rank.Cabo, "2021-06-01"),
	}
	result, err := calc.CalculateAll(context.Background(), inputs, time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, result.Forecasts, 3)
	for _, f := range result.Forecasts {
		assert.Equal(t, result.Forecasts[0].RemainingLabel, f.RemainingLabel)
	}
	assert.Equal(t, 1, day)
}

func TestCalculateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCalculator().CalculateAll(ctx, []forecast.Input{
		enlisted("a", rank.Cabo, "2021-06-01"),
	}, at(2024, time.June, 1), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateAll_Empty(t *testing.T) {
	result, err := newCalculator().CalculateAll(context.Background(), nil, at(2024, time.June, 1), 0)
	require.NoError(t, err)
	assert.Empty(t, result.Forecasts)
	assert.Empty(t, result.Skipped)
}
