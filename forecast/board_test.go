package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm/promotion-engine/forecast"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/vacancy"
)

func candidate(in forecast.Input, score float64) forecast.Candidate {
	return forecast.Candidate{Input: in, DisplayName: "Member " + string(in.MemberID), Score: generic.NewPoints(score)}
}

func boardIDs(b forecast.Board) []generic.MemberID {
	ids := make([]generic.MemberID, len(b.Entries))
	for i, e := range b.Entries {
		ids[i] = e.MemberID
	}
	return ids
}

func TestBoard_SeniorityOrder(t *testing.T) {
	// GIVEN: QPBM Cabos (seniority) and one free 3º Sargento seat
	// WHEN: Building the Cabo board
	// THEN: Eligible Cabos by earliest last promotion, ties by ID; only the
	//       first is within vacancies; the not-yet-eligible and the
	//       unreadable are left out

	seats := rank.SeatTable{rank.QPBM: {rank.TerceiroSargento: 3, rank.Cabo: 10}}
	report := vacancy.NewAccountant(seats).Account([]vacancy.CensusEntry{
		{Rank: rank.TerceiroSargento, Corps: rank.QPBM},
		{Rank: rank.TerceiroSargento, Corps: rank.QPBM},
	})

	cands := []forecast.Candidate{
		candidate(enlisted("c-3", rank.Cabo, "2020-05-01"), 0),
		candidate(enlisted("c-1", rank.Cabo, "2019-01-10"), 0),
		candidate(enlisted("c-2", rank.Cabo, "2020-05-01"), 9),
		candidate(enlisted("c-4", rank.Cabo, "2023-01-01"), 0),
		candidate(enlisted("c-5", rank.Cabo, "not a date"), 0),
		candidate(enlisted("s-1", rank.Soldado, "2015-01-01"), 0),
	}

	b, err := newCalculator().Board(rank.QPBM, rank.Cabo, cands, report, at(2024, time.June, 1))
	require.NoError(t, err)

	assert.Equal(t, rank.Seniority, b.Criterion)
	require.NotNil(t, b.NextRank)
	assert.Equal(t, rank.TerceiroSargento, *b.NextRank)
	assert.Equal(t, uint(1), b.AvailableSeats)
	assert.Equal(t, date(2024, time.June, 1), b.AsOf)

	assert.Equal(t, []generic.MemberID{"c-1", "c-2", "c-3"}, boardIDs(b))
	assert.True(t, b.Entries[0].WithinVacancies)
	assert.False(t, b.Entries[1].WithinVacancies)
	assert.False(t, b.Entries[2].WithinVacancies)
	assert.Equal(t, 1, b.Entries[0].Position)
	assert.Equal(t, date(2022, time.January, 10), b.Entries[0].NextEligibleDate)

	require.Len(t, b.Skipped, 1)
	assert.Equal(t, generic.MemberID("c-5"), b.Skipped[0].MemberID)
	assert.ErrorIs(t, b.Skipped[0], generic.ErrInvalidDate)
}

func TestBoard_MeritOrder(t *testing.T) {
	// GIVEN: QOEM Capitães (merit) with two free Major seats
	// WHEN: Building the Capitão board
	// THEN: Highest score first, equal scores by seniority

	seats := rank.SeatTable{rank.QOEM: {rank.Major: 3, rank.Capitao: 10}}
	report := vacancy.NewAccountant(seats).Account([]vacancy.CensusEntry{
		{Rank: rank.Major, Corps: rank.QOEM},
	})

	cands := []forecast.Candidate{
		candidate(officer("a", rank.Capitao, "2018-01-01"), 1),
		candidate(officer("b", rank.Capitao, "2019-06-01"), 2.5),
		candidate(officer("c", rank.Capitao, "2019-01-01"), 2.5),
		candidate(officer("d", rank.Capitao, "2019-03-01"), -1),
	}

	b, err := newCalculator().Board(rank.QOEM, rank.Capitao, cands, report, at(2024, time.June, 1))
	require.NoError(t, err)

	assert.Equal(t, rank.Merit, b.Criterion)
	assert.Equal(t, uint(2), b.AvailableSeats)
	assert.Equal(t, []generic.MemberID{"c", "b", "a", "d"}, boardIDs(b))
	assert.Equal(t, "2.50", b.Entries[0].Score)
	assert.Equal(t, "-1.00", b.Entries[3].Score)
	assert.True(t, b.Entries[1].WithinVacancies)
	assert.False(t, b.Entries[2].WithinVacancies)
}

func TestBoard_NoSeatsLeft(t *testing.T) {
	// GIVEN: 38 QOEM Majors against 35 seats
	// WHEN: Building the Capitão board
	// THEN: Zero seats; candidates are listed but none within vacancies

	census := make([]vacancy.CensusEntry, 38)
	for i := range census {
		census[i] = vacancy.CensusEntry{Rank: rank.Major, Corps: rank.QOEM}
	}
	report := vacancy.NewAccountant(rank.DefaultSeats()).Account(census)

	b, err := newCalculator().Board(rank.QOEM, rank.Capitao, []forecast.Candidate{
		candidate(officer("a", rank.Capitao, "2018-01-01"), 0),
	}, report, at(2024, time.June, 1))
	require.NoError(t, err)

	assert.Equal(t, uint(0), b.AvailableSeats)
	require.Len(t, b.Entries, 1)
	assert.False(t, b.Entries[0].WithinVacancies)
}

func TestBoard_CeilingAndReserve(t *testing.T) {
	report := vacancy.NewAccountant(rank.DefaultSeats()).Account(nil)
	calc := newCalculator()

	b, err := calc.Board(rank.QOEM, rank.Coronel, []forecast.Candidate{
		candidate(officer("a", rank.Coronel, "2010-01-01"), 0),
	}, report, at(2024, time.June, 1))
	require.NoError(t, err)
	assert.Nil(t, b.NextRank)
	assert.Empty(t, b.Entries)

	b, err = calc.Board(rank.QORR, rank.Major, []forecast.Candidate{
		candidate(officer("r", rank.Major, "2010-01-01"), 0),
	}, report, at(2024, time.June, 1))
	require.NoError(t, err)
	assert.Empty(t, b.Entries, "reserve corps have no board")
}

func TestBoard_InvalidCorpsOrRank(t *testing.T) {
	// GIVEN: Corps or rank values past their tables
	// WHEN: Building a board
	// THEN: Unknown corps or rank errors, never a panic

	report := vacancy.NewAccountant(rank.DefaultSeats()).Account(nil)
	calc := newCalculator()

	_, err := calc.Board(rank.Corps(42), rank.Cabo, nil, report, at(2024, time.June, 1))
	assert.ErrorIs(t, err, rank.ErrUnknownCorps)

	_, err = calc.Board(rank.QPBM, rank.Rank(200), nil, report, at(2024, time.June, 1))
	assert.ErrorIs(t, err, rank.ErrUnknownRank)
}

func TestBoard_RankOutsideCorpsHierarchy(t *testing.T) {
	report := vacancy.NewAccountant(rank.DefaultSeats()).Account(nil)
	_, err := newCalculator().Board(rank.QPBM, rank.Major, nil, report, at(2024, time.June, 1))
	assert.ErrorIs(t, err, rank.ErrUnknownRank)
}
