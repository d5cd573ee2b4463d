/*
Package merit records career events and turns them into a merit score.

PURPOSE:
  Promotions by merit (merecimento) rank candidates by accumulated points:
  courses, decorations and commendations add, punishments subtract. Each
  event becomes an immutable entry in the generic ledger; the score is the
  sum of entries since the member's last promotion.

POINT TABLE:
  course        +1.00 (a course may declare its own points)
  decoration    +1.50
  commendation  +0.50
  reprimand     -0.50
  detention     -1.00
  arrest        -2.00

CORRECTIONS:
  An event recorded by mistake is reversed (ledger reversal entry), never
  deleted, so the score history stays explainable.

SEE ALSO:
  - generic/ledger.go: append-only entry log
  - forecast/board.go: merit ordering on the promotion board
*/
package merit

import (
	"github.com/shopspring/decimal"

	"github.com/cbm/promotion-engine/generic"
)

// =============================================================================
// EVENT KINDS
// =============================================================================

type Kind string

const (
	KindCourse       Kind = "course"
	KindDecoration   Kind = "decoration"
	KindCommendation Kind = "commendation"
	KindReprimand    Kind = "reprimand"
	KindDetention    Kind = "detention"
	KindArrest       Kind = "arrest"
)

var pointTable = map[Kind]decimal.Decimal{
	KindCourse:       decimal.RequireFromString("1.00"),
	KindDecoration:   decimal.RequireFromString("1.50"),
	KindCommendation: decimal.RequireFromString("0.50"),
	KindReprimand:    decimal.RequireFromString("-0.50"),
	KindDetention:    decimal.RequireFromString("-1.00"),
	KindArrest:       decimal.RequireFromString("-2.00"),
}

// Kinds returns every event kind in display order.
func Kinds() []Kind {
	return []Kind{KindCourse, KindDecoration, KindCommendation, KindReprimand, KindDetention, KindArrest}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := pointTable[k]; !ok {
		return "", generic.ErrUnknownEventKind
	}
	return k, nil
}

// IsPunishment reports kinds that lower the score.
func (k Kind) IsPunishment() bool {
	return k == KindReprimand || k == KindDetention || k == KindArrest
}

// DefaultPoints returns the statutory points for a kind.
func DefaultPoints(k Kind) (generic.Points, error) {
	v, ok := pointTable[k]
	if !ok {
		return generic.Points{}, generic.ErrUnknownEventKind
	}
	return generic.Points{Value: v}, nil
}

// =============================================================================
// EVENT
// =============================================================================

// Event is a career event as submitted by staff.
type Event struct {
	ID          generic.EntryID
	MemberID    generic.MemberID
	Kind        Kind
	Date        generic.Date
	Description string
	Document    string          // bulletin / ordinance reference
	Points      *generic.Points // course only; nil = table value
	RecordedBy  string
}

// Value returns the points the event is worth.
func (e Event) Value() (generic.Points, error) {
	if e.Points != nil && e.Kind == KindCourse {
		return *e.Points, nil
	}
	return DefaultPoints(e.Kind)
}
