/*
Package generic provides the domain-agnostic core of the promotion engine.

PURPOSE:
  Calendar arithmetic, point amounts and the append-only ledger that records
  career events. The rank, merit, forecast and vacancy packages build on it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Points: A decimal merit score amount
  - Entry: An immutable ledger entry recording a score change
  - Identifiers: Type-safe member/entry IDs

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified, only reversed
  2. Precision: Uses decimal.Decimal so half-point commendations add exactly
  3. Type Safety: Strong typing for IDs prevents mixing member/entry IDs
  4. Auditability: Every entry has reason, reference, and idempotency key

USAGE:
  entry := generic.Entry{
      MemberID:    "5b1c...",
      Kind:        "commendation",
      EffectiveAt: generic.NewDate(2024, time.March, 10),
      Delta:       generic.NewPoints(0.5),
  }

SEE ALSO:
  - time.go: Date type and calendar arithmetic
  - ledger.go: Entry persistence interface
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Merit score quantity
// =============================================================================

type Points struct {
	Value decimal.Decimal
}

func NewPoints(value float64) Points {
	return Points{Value: decimal.NewFromFloat(value)}
}

func NewPointsFromString(s string) (Points, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Points{}, err
	}
	return Points{Value: d}, nil
}

func ZeroPoints() Points { return Points{Value: decimal.Zero} }

func (p Points) Add(o Points) Points       { return Points{Value: p.Value.Add(o.Value)} }
func (p Points) Sub(o Points) Points       { return Points{Value: p.Value.Sub(o.Value)} }
func (p Points) Neg() Points               { return Points{Value: p.Value.Neg()} }
func (p Points) IsNegative() bool          { return p.Value.IsNegative() }
func (p Points) IsZero() bool              { return p.Value.IsZero() }
func (p Points) GreaterThan(o Points) bool { return p.Value.GreaterThan(o.Value) }
func (p Points) Equal(o Points) bool       { return p.Value.Equal(o.Value) }
func (p Points) String() string            { return p.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type EntryID string

// =============================================================================
// ENTRY - Atomic change to a member's merit score
// =============================================================================

type EntryType string

const (
	EntryEvent    EntryType = "event"    // Career event (course, decoration, commendation, punishment)
	EntryReversal EntryType = "reversal" // Undo a previous entry
)

type Entry struct {
	ID             EntryID
	MemberID       MemberID
	Kind           string // career event kind, owned by the merit package
	EffectiveAt    Date
	Delta          Points
	Type           EntryType
	ReferenceID    string // reversed entry ID, or external document number
	Reason         string
	IdempotencyKey string

	// Audit fields
	CreatedBy string
	CreatedAt Date
}
