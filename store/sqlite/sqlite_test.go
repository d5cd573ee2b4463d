package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func member(id, registration, rank, corps, last string) sqlite.Member {
	return sqlite.Member{
		ID:                id,
		Registration:      registration,
		DisplayName:       "Member " + id,
		Rank:              rank,
		Corps:             corps,
		LastPromotionDate: last,
		Active:            true,
	}
}

func entry(id, memberID string, at generic.Date, points float64, key string) generic.Entry {
	return generic.Entry{
		ID:             generic.EntryID(id),
		MemberID:       generic.MemberID(memberID),
		Kind:           "course",
		EffectiveAt:    at,
		Delta:          generic.NewPoints(points),
		Type:           generic.EntryEvent,
		IdempotencyKey: key,
		CreatedBy:      "sgt.silva",
	}
}

// =============================================================================
// MEMBERS
// =============================================================================

func TestMembers_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	m := member("m-1", "123.456-7", "Capitão", "QOEM", "2021-03-10")
	m.Phone = "+55 61 99999-0000"
	require.NoError(t, s.SaveMember(ctx, m))

	got, err := s.GetMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Capitão", got.Rank)
	assert.Equal(t, "2021-03-10", got.LastPromotionDate)
	assert.Equal(t, "+55 61 99999-0000", got.Phone)
	assert.Empty(t, got.Email)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())

	// GIVEN: An update to the same ID
	// THEN: The row is replaced, not duplicated
	m.DisplayName = "Cap. Souza"
	require.NoError(t, s.SaveMember(ctx, m))
	all, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Cap. Souza", all[0].DisplayName)
}

func TestMembers_RawTextIsStoredVerbatim(t *testing.T) {
	// GIVEN: A row whose date and rank the domain cannot read
	// THEN: The store keeps it as-is; validation happens on read in the domain

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("m-1", "1", "Almirante", "QBM", "31/02/2020")))

	got, err := s.GetMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Almirante", got.Rank)
	assert.Equal(t, "31/02/2020", got.LastPromotionDate)
}

func TestMembers_DuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveMember(ctx, member("m-1", "42", "Cabo", "QPBM", "2021-01-01")))
	err := s.SaveMember(ctx, member("m-2", "42", "Cabo", "QPBM", "2021-01-01"))
	assert.ErrorIs(t, err, sqlite.ErrDuplicateRegistration)
}

func TestMembers_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetMember(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrMemberNotFound)

	err = s.DeactivateMember(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrMemberNotFound)
}

func TestMembers_CensusIsActiveOnly(t *testing.T) {
	// GIVEN: Three members in two corps, one deactivated
	// WHEN: Taking the census
	// THEN: Only active members, optionally filtered by corps

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("a", "1", "Major", "QOEM", "2020-01-01")))
	require.NoError(t, s.SaveMember(ctx, member("b", "2", "Major", "QOEM", "2020-01-01")))
	require.NoError(t, s.SaveMember(ctx, member("c", "3", "Cabo", "QPBM", "2020-01-01")))
	require.NoError(t, s.DeactivateMember(ctx, "b"))

	all, err := s.Census(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[1].ID)

	qoem, err := s.Census(ctx, "QOEM")
	require.NoError(t, err)
	require.Len(t, qoem, 1)
	assert.Equal(t, "a", qoem[0].ID)

	b, err := s.GetMember(ctx, "b")
	require.NoError(t, err)
	assert.False(t, b.Active, "deactivated members keep their row")
}

// =============================================================================
// PROMOTIONS
// =============================================================================

func TestRecordPromotion(t *testing.T) {
	// GIVEN: A Cabo
	// WHEN: Recording a promotion to 3º Sargento
	// THEN: The member moves rank and date, and the history has the row

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("m-1", "1", "Cabo", "QPBM", "2020-01-01")))

	require.NoError(t, s.RecordPromotion(ctx, sqlite.Promotion{
		ID: "p-1", MemberID: "m-1", FromRank: "Cabo", ToRank: "3º Sargento",
		PromotedOn: "2024-05-20", Criterion: "antiguidade", Document: "BG 95",
	}))

	m, err := s.GetMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "3º Sargento", m.Rank)
	assert.Equal(t, "2024-05-20", m.LastPromotionDate)

	history, err := s.Promotions(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Cabo", history[0].FromRank)
	assert.Equal(t, "BG 95", history[0].Document)
}

func TestRecordPromotion_RankChanged(t *testing.T) {
	// GIVEN: A promotion prepared against a rank the member no longer holds
	// THEN: ErrRankChanged and nothing is written

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("m-1", "1", "3º Sargento", "QPBM", "2024-05-20")))

	err := s.RecordPromotion(ctx, sqlite.Promotion{
		ID: "p-2", MemberID: "m-1", FromRank: "Cabo", ToRank: "3º Sargento",
		PromotedOn: "2024-06-01", Criterion: "antiguidade",
	})
	assert.ErrorIs(t, err, sqlite.ErrRankChanged)

	history, err := s.Promotions(ctx, "m-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	err = s.RecordPromotion(ctx, sqlite.Promotion{ID: "p-3", MemberID: "ghost", FromRank: "Cabo"})
	assert.ErrorIs(t, err, generic.ErrMemberNotFound)
}

func TestRecordPromotion_Inactive(t *testing.T) {
	// GIVEN: A deactivated Cabo
	// WHEN: Recording a promotion
	// THEN: ErrMemberInactive and the member keeps rank and history

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("m-1", "1", "Cabo", "QPBM", "2020-01-01")))
	require.NoError(t, s.DeactivateMember(ctx, "m-1"))

	err := s.RecordPromotion(ctx, sqlite.Promotion{
		ID: "p-1", MemberID: "m-1", FromRank: "Cabo", ToRank: "3º Sargento",
		PromotedOn: "2024-05-20", Criterion: "antiguidade",
	})
	assert.ErrorIs(t, err, sqlite.ErrMemberInactive)

	m, err := s.GetMember(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, "Cabo", m.Rank)
	history, err := s.Promotions(ctx, "m-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// =============================================================================
// MERIT ENTRIES
// =============================================================================

func TestEntries_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, entry("e-2", "m-1", generic.NewDate(2024, time.March, 1), 0.5, "k-2")))
	require.NoError(t, s.Append(ctx, entry("e-1", "m-1", generic.NewDate(2023, time.July, 1), 1, "k-1")))
	require.NoError(t, s.Append(ctx, entry("e-3", "m-2", generic.NewDate(2023, time.July, 1), 1, "k-3")))

	es, err := s.Load(ctx, "m-1")
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, generic.EntryID("e-1"), es[0].ID)
	assert.Equal(t, "0.50", es[1].Delta.String())
	assert.Equal(t, generic.NewDate(2024, time.March, 1), es[1].EffectiveAt)
	assert.Equal(t, "sgt.silva", es[1].CreatedBy)

	got, err := s.Get(ctx, "e-3")
	require.NoError(t, err)
	assert.Equal(t, generic.MemberID("m-2"), got.MemberID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrEntryNotFound)
}

func TestEntries_LoadRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for i, day := range []int{1, 10, 20, 30} {
		id := string(rune('a' + i))
		require.NoError(t, s.Append(ctx, entry(id, "m-1", generic.NewDate(2024, time.April, day), 1, "k-"+id)))
	}

	es, err := s.LoadRange(ctx, "m-1", generic.NewDate(2024, time.April, 10), generic.NewDate(2024, time.April, 20))
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, generic.EntryID("b"), es[0].ID)
	assert.Equal(t, generic.EntryID("c"), es[1].ID)
}

func TestEntries_DuplicateIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, entry("e-1", "m-1", generic.NewDate(2024, time.March, 1), 1, "BG 7")))
	err := s.Append(ctx, entry("e-2", "m-1", generic.NewDate(2024, time.March, 1), 1, "BG 7"))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	ok, err := s.Exists(ctx, "BG 7")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntries_AppendBatchIsAtomic(t *testing.T) {
	// GIVEN: A batch whose second entry collides with a stored key
	// WHEN: Appending the batch
	// THEN: Nothing from the batch is written

	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Append(ctx, entry("e-0", "m-1", generic.NewDate(2024, time.January, 1), 1, "taken")))

	err := s.AppendBatch(ctx, []generic.Entry{
		entry("e-1", "m-1", generic.NewDate(2024, time.February, 1), 1, "fresh"),
		entry("e-2", "m-1", generic.NewDate(2024, time.February, 1), 1, "taken"),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	es, err := s.Load(ctx, "m-1")
	require.NoError(t, err)
	assert.Len(t, es, 1)
}

func TestEntries_IsReversed(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Append(ctx, entry("e-1", "m-1", generic.NewDate(2024, time.January, 1), -2, "")))
	reversed, err := s.IsReversed(ctx, "e-1")
	require.NoError(t, err)
	assert.False(t, reversed)

	rev := entry("r-1", "m-1", generic.NewDate(2024, time.February, 1), 2, "")
	rev.Type = generic.EntryReversal
	rev.ReferenceID = "e-1"
	require.NoError(t, s.Append(ctx, rev))

	reversed, err = s.IsReversed(ctx, "e-1")
	require.NoError(t, err)
	assert.True(t, reversed)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveMember(ctx, member("m-1", "1", "Cabo", "QPBM", "2020-01-01")))
	require.NoError(t, s.Append(ctx, entry("e-1", "m-1", generic.NewDate(2024, time.January, 1), 1, "k")))
	require.NoError(t, s.RecordPromotion(ctx, sqlite.Promotion{
		ID: "p-1", MemberID: "m-1", FromRank: "Cabo", ToRank: "3º Sargento", PromotedOn: "2024-05-20", Criterion: "antiguidade",
	}))

	require.NoError(t, s.Reset(ctx))

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
	es, err := s.Load(ctx, "m-1")
	require.NoError(t, err)
	assert.Empty(t, es)
	require.NoError(t, s.Ping(ctx))
}
