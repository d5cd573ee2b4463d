package merit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cbm/promotion-engine/generic"
)

// Ledger records career events on top of the generic entry ledger.
type Ledger struct {
	entries generic.Ledger
}

func NewLedger(store generic.Store) *Ledger {
	return &Ledger{entries: generic.NewLedger(store)}
}

// Record validates the event and appends its entry. The idempotency key is
// derived from member, kind, date and document so a double submit of the same
// bulletin is rejected with ErrDuplicateIdempotencyKey.
func (l *Ledger) Record(ctx context.Context, ev Event, at generic.Date) (generic.Entry, error) {
	if ev.MemberID == "" {
		return generic.Entry{}, generic.ErrMemberNotFound
	}
	if ev.Date.IsZero() {
		return generic.Entry{}, &generic.InvalidDateError{Field: "date"}
	}
	if ev.Date.After(at) {
		return generic.Entry{}, fmt.Errorf("event dated %s after %s: %w", ev.Date, at, generic.ErrInvalidDate)
	}
	value, err := ev.Value()
	if err != nil {
		return generic.Entry{}, err
	}

	id := ev.ID
	if id == "" {
		id = generic.EntryID(uuid.NewString())
	}
	entry := generic.Entry{
		ID:          id,
		MemberID:    ev.MemberID,
		Kind:        string(ev.Kind),
		EffectiveAt: ev.Date,
		Delta:       value,
		Type:        generic.EntryEvent,
		ReferenceID: ev.Document,
		Reason:      ev.Description,
		CreatedBy:   ev.RecordedBy,
		CreatedAt:   at,
	}
	if ev.Document != "" {
		entry.IdempotencyKey = fmt.Sprintf("%s:%s:%s:%s", ev.MemberID, ev.Kind, ev.Date, ev.Document)
	}

	if err := l.entries.Append(ctx, entry); err != nil {
		return generic.Entry{}, err
	}
	return entry, nil
}

// Reverse cancels a recorded event.
func (l *Ledger) Reverse(ctx context.Context, id generic.EntryID, reason, actor string, at generic.Date) (generic.Entry, error) {
	return l.entries.Reverse(ctx, id, reason, actor, at)
}

// History returns every entry of a member, chronologically.
func (l *Ledger) History(ctx context.Context, memberID generic.MemberID) ([]generic.Entry, error) {
	return l.entries.Entries(ctx, memberID)
}

// Score sums entries dated after the last promotion up to asOf. Events on the
// promotion day itself counted towards the previous rank.
func (l *Ledger) Score(ctx context.Context, memberID generic.MemberID, lastPromotion, asOf generic.Date) (generic.Points, error) {
	window, err := generic.NewPeriod(lastPromotion.AddDays(1), asOf)
	if errors.Is(err, generic.ErrInvalidPeriod) {
		return generic.ZeroPoints(), nil
	}
	if err != nil {
		return generic.Points{}, err
	}
	return l.entries.ScoreIn(ctx, memberID, window)
}

// Summary counts non-reversed events per kind inside the scoring window.
type Summary struct {
	Score  generic.Points
	Counts map[Kind]int
}

func (l *Ledger) Summarize(ctx context.Context, memberID generic.MemberID, lastPromotion, asOf generic.Date) (Summary, error) {
	s := Summary{Score: generic.ZeroPoints(), Counts: make(map[Kind]int)}
	window, err := generic.NewPeriod(lastPromotion.AddDays(1), asOf)
	if errors.Is(err, generic.ErrInvalidPeriod) {
		return s, nil
	}
	if err != nil {
		return Summary{}, err
	}
	es, err := l.entries.EntriesIn(ctx, memberID, window)
	if err != nil {
		return Summary{}, err
	}
	for _, e := range es {
		s.Score = s.Score.Add(e.Delta)
		switch e.Type {
		case generic.EntryEvent:
			s.Counts[Kind(e.Kind)]++
		case generic.EntryReversal:
			s.Counts[Kind(e.Kind)]--
		}
	}
	return s, nil
}
