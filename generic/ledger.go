/*
ledger.go - Append-only merit entry log

PURPOSE:
  The Ledger is the immutable source of truth for a member's merit score.
  Every course, decoration, commendation and punishment is recorded here.
  Score is always computed by replaying entries - there's no separate
  "score" column that can drift from the history.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. IDEMPOTENT: Same idempotency key = same entry (no duplicates)

CORRECTIONS:
  A wrongly recorded punishment is not edited. A Reversal entry with the
  opposite sign is appended; both remain in the ledger.

SEE ALSO:
  - store.go: Low-level persistence interface
  - merit/ledger.go: Career-event wrapper with point tables
*/
package generic

import (
	"context"
	"fmt"
)

// Ledger is the source of truth for merit score changes.
type Ledger interface {
	Append(ctx context.Context, e Entry) error
	AppendBatch(ctx context.Context, es []Entry) error

	// Entries returns all entries for a member, chronologically.
	Entries(ctx context.Context, memberID MemberID) ([]Entry, error)

	// EntriesIn returns entries effective inside the period.
	EntriesIn(ctx context.Context, memberID MemberID, p Period) ([]Entry, error)

	// Reverse appends a reversal for an existing entry.
	Reverse(ctx context.Context, id EntryID, reason, actor string, at Date) (Entry, error)

	// ScoreIn sums entry deltas effective inside the period.
	ScoreIn(ctx context.Context, memberID MemberID, p Period) (Points, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, e Entry) error {
	if e.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, e)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, es []Entry) error {
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, es)
}

func (l *DefaultLedger) Entries(ctx context.Context, memberID MemberID) ([]Entry, error) {
	return l.Store.Load(ctx, memberID)
}

func (l *DefaultLedger) EntriesIn(ctx context.Context, memberID MemberID, p Period) ([]Entry, error) {
	return l.Store.LoadRange(ctx, memberID, p.Start, p.End)
}

func (l *DefaultLedger) Reverse(ctx context.Context, id EntryID, reason, actor string, at Date) (Entry, error) {
	orig, err := l.Store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if orig.Type == EntryReversal {
		return Entry{}, fmt.Errorf("cannot reverse reversal %s: %w", id, ErrAlreadyReversed)
	}
	reversed, err := l.Store.IsReversed(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if reversed {
		return Entry{}, ErrAlreadyReversed
	}

	rev := Entry{
		ID:             "reversal-" + orig.ID,
		MemberID:       orig.MemberID,
		Kind:           orig.Kind,
		EffectiveAt:    orig.EffectiveAt,
		Delta:          orig.Delta.Neg(),
		Type:           EntryReversal,
		ReferenceID:    string(orig.ID),
		Reason:         reason,
		IdempotencyKey: "reversal:" + string(orig.ID),
		CreatedBy:      actor,
		CreatedAt:      at,
	}
	if err := l.Append(ctx, rev); err != nil {
		return Entry{}, err
	}
	return rev, nil
}

func (l *DefaultLedger) ScoreIn(ctx context.Context, memberID MemberID, p Period) (Points, error) {
	es, err := l.EntriesIn(ctx, memberID, p)
	if err != nil {
		return Points{}, err
	}
	score := ZeroPoints()
	for _, e := range es {
		score = score.Add(e.Delta)
	}
	return score, nil
}
