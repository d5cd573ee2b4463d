package rank

import (
	"errors"
	"fmt"

	"github.com/cbm/promotion-engine/generic"
)

var (
	// ErrUnknownRank is returned when a rank has no rule in the hierarchy
	// it is looked up in, or a stored string names no rank.
	ErrUnknownRank = errors.New("unknown rank")

	// ErrUnknownCorps is returned when a stored string names no corps.
	ErrUnknownCorps = errors.New("unknown corps")
)

func init() {
	generic.RegisterIntegrityError(ErrUnknownRank)
	generic.RegisterIntegrityError(ErrUnknownCorps)
}

// UnknownRankError reports a rank string or value without a rule.
type UnknownRankError struct {
	Value     string
	Rank      Rank
	Hierarchy Hierarchy
}

func (e *UnknownRankError) Error() string {
	if e.Rank.Valid() && e.Rank.Hierarchy() != e.Hierarchy {
		return fmt.Sprintf("unknown rank: %s has no rule in the %s hierarchy", e.Value, e.Hierarchy)
	}
	return fmt.Sprintf("unknown rank: %q", e.Value)
}

func (e *UnknownRankError) Unwrap() error { return ErrUnknownRank }

// UnknownCorpsError reports a corps string that is not in the statute.
type UnknownCorpsError struct {
	Value string
}

func (e *UnknownCorpsError) Error() string { return fmt.Sprintf("unknown corps: %q", e.Value) }

func (e *UnknownCorpsError) Unwrap() error { return ErrUnknownCorps }

// UnknownCriterionError reports an unparseable promotion criterion.
type UnknownCriterionError struct {
	Value string
}

func (e *UnknownCriterionError) Error() string {
	return fmt.Sprintf("unknown promotion criterion: %q", e.Value)
}

// MissingRuleError is returned when a table is built without a rule for a rank.
type MissingRuleError struct {
	Rank Rank
}

func (e *MissingRuleError) Error() string {
	return fmt.Sprintf("no promotion rule for %s", e.Rank)
}

func (e *MissingRuleError) Unwrap() error { return ErrUnknownRank }
