package merit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/generic/store"
	"github.com/cbm/promotion-engine/merit"
)

func date(y int, m time.Month, d int) generic.Date {
	return generic.NewDate(y, m, d)
}

func event(kind merit.Kind, on generic.Date, doc string) merit.Event {
	return merit.Event{MemberID: "m-1", Kind: kind, Date: on, Document: doc, RecordedBy: "sgt.silva"}
}

func TestKinds_DefaultPoints(t *testing.T) {
	want := map[merit.Kind]string{
		merit.KindCourse:       "1.00",
		merit.KindDecoration:   "1.50",
		merit.KindCommendation: "0.50",
		merit.KindReprimand:    "-0.50",
		merit.KindDetention:    "-1.00",
		merit.KindArrest:       "-2.00",
	}
	require.Len(t, merit.Kinds(), len(want))
	for _, k := range merit.Kinds() {
		p, err := merit.DefaultPoints(k)
		require.NoError(t, err)
		assert.Equal(t, want[k], p.String(), string(k))
		assert.Equal(t, p.IsNegative(), k.IsPunishment(), string(k))
	}

	_, err := merit.ParseKind("promotion")
	assert.ErrorIs(t, err, generic.ErrUnknownEventKind)
}

func TestEvent_CoursePointsOverride(t *testing.T) {
	custom := generic.NewPoints(2.25)

	v, err := merit.Event{Kind: merit.KindCourse, Points: &custom}.Value()
	require.NoError(t, err)
	assert.Equal(t, "2.25", v.String())

	v, err = merit.Event{Kind: merit.KindDecoration, Points: &custom}.Value()
	require.NoError(t, err)
	assert.Equal(t, "1.50", v.String(), "only courses declare their own points")
}

func TestLedger_RecordAndScore(t *testing.T) {
	// GIVEN: A member promoted on 2022-03-01 with events before, on and after
	//        that day
	// WHEN: Scoring as of 2024-06-01
	// THEN: Only events after the promotion day up to the reference date count

	ctx := context.Background()
	ledger := merit.NewLedger(store.NewMemory())
	asOf := date(2024, time.June, 1)

	for _, ev := range []merit.Event{
		event(merit.KindDecoration, date(2021, time.May, 1), "BG 1"),
		event(merit.KindCourse, date(2022, time.March, 1), "BG 2"),
		event(merit.KindCourse, date(2022, time.March, 2), "BG 3"),
		event(merit.KindCommendation, date(2023, time.July, 10), "BG 4"),
		event(merit.KindReprimand, date(2024, time.June, 1), "BG 5"),
	} {
		_, err := ledger.Record(ctx, ev, asOf)
		require.NoError(t, err)
	}

	score, err := ledger.Score(ctx, "m-1", date(2022, time.March, 1), asOf)
	require.NoError(t, err)
	assert.Equal(t, "1.00", score.String())

	summary, err := ledger.Summarize(ctx, "m-1", date(2022, time.March, 1), asOf)
	require.NoError(t, err)
	assert.True(t, summary.Score.Equal(score))
	assert.Equal(t, map[merit.Kind]int{
		merit.KindCourse:       1,
		merit.KindCommendation: 1,
		merit.KindReprimand:    1,
	}, summary.Counts)
}

func TestLedger_RejectsInvalidEvents(t *testing.T) {
	ctx := context.Background()
	ledger := merit.NewLedger(store.NewMemory())
	asOf := date(2024, time.June, 1)

	_, err := ledger.Record(ctx, event(merit.KindCourse, date(2024, time.June, 2), ""), asOf)
	assert.ErrorIs(t, err, generic.ErrInvalidDate, "future events are rejected")

	_, err = ledger.Record(ctx, event(merit.KindCourse, generic.Date{}, ""), asOf)
	assert.ErrorIs(t, err, generic.ErrInvalidDate)

	_, err = ledger.Record(ctx, event("promotion", date(2024, time.May, 1), ""), asOf)
	assert.ErrorIs(t, err, generic.ErrUnknownEventKind)

	ev := event(merit.KindCourse, date(2024, time.May, 1), "")
	ev.MemberID = ""
	_, err = ledger.Record(ctx, ev, asOf)
	assert.ErrorIs(t, err, generic.ErrMemberNotFound)
}

func TestLedger_SameBulletinTwice(t *testing.T) {
	// GIVEN: An event already recorded from bulletin "BG 12"
	// WHEN: The same event and bulletin are submitted again
	// THEN: Rejected as a duplicate

	ctx := context.Background()
	ledger := merit.NewLedger(store.NewMemory())
	asOf := date(2024, time.June, 1)
	ev := event(merit.KindDecoration, date(2024, time.May, 1), "BG 12")

	_, err := ledger.Record(ctx, ev, asOf)
	require.NoError(t, err)
	_, err = ledger.Record(ctx, ev, asOf)
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	history, err := ledger.History(ctx, "m-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLedger_ReverseRemovesFromScoreAndCounts(t *testing.T) {
	ctx := context.Background()
	ledger := merit.NewLedger(store.NewMemory())
	asOf := date(2024, time.June, 1)

	arrest, err := ledger.Record(ctx, event(merit.KindArrest, date(2024, time.January, 5), "BG 2"), asOf)
	require.NoError(t, err)
	_, err = ledger.Record(ctx, event(merit.KindCourse, date(2024, time.February, 5), "BG 3"), asOf)
	require.NoError(t, err)

	_, err = ledger.Reverse(ctx, arrest.ID, "annulled by appeal", "cap.souza", asOf)
	require.NoError(t, err)

	summary, err := ledger.Summarize(ctx, "m-1", date(2023, time.January, 1), asOf)
	require.NoError(t, err)
	assert.Equal(t, "1.00", summary.Score.String())
	assert.Equal(t, 0, summary.Counts[merit.KindArrest])
	assert.Equal(t, 1, summary.Counts[merit.KindCourse])
}

func TestLedger_EmptyWindow(t *testing.T) {
	// GIVEN: A reference date on the promotion day itself
	// THEN: Zero score, not an error

	ctx := context.Background()
	ledger := merit.NewLedger(store.NewMemory())

	score, err := ledger.Score(ctx, "m-1", date(2024, time.June, 1), date(2024, time.June, 1))
	require.NoError(t, err)
	assert.True(t, score.IsZero())

	summary, err := ledger.Summarize(ctx, "m-1", date(2024, time.June, 1), date(2024, time.May, 1))
	require.NoError(t, err)
	assert.True(t, summary.Score.IsZero())
	assert.Empty(t, summary.Counts)
}
