/*
Package forecast projects when a member becomes eligible for promotion.

PURPOSE:
  Given a member's rank, corps hierarchy and last promotion date, compute the
  earliest date the statute allows the next promotion, the criterion that will
  apply and a human-facing "time remaining" label.

ALGORITHM:
  1. Look up the rule for the rank in the member's hierarchy
  2. Ceiling rank: no next date, label "N/A"
  3. Eligible date = last promotion + minimum years (calendar years)
  4. Label from days/months between today and the eligible date

LEAP DAYS:
  Date arithmetic is generic.Date.AddYears: a Feb 29 promotion reaches its
  anniversary on Mar 1 in non-leap years. Every code path uses that function.

CLOCK:
  "now" is an argument. A zero now falls back to the calculator's Clock so
  handlers can stay simple and tests stay deterministic. Batch calls take one
  now for every member so a report never mixes reference instants.

SEE ALSO:
  - label.go: remaining-time buckets
  - batch.go: skip-and-report batch computation
  - board.go: promotion board built from forecasts
*/
package forecast

import (
	"time"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
)

// Input is the snapshot of a member the forecast reads.
type Input struct {
	MemberID          generic.MemberID
	Rank              rank.Rank
	LastPromotionDate string
	IsOfficer         bool
}

// Forecast is derived on every call and never persisted.
type Forecast struct {
	MemberID          generic.MemberID `json:"member_id"`
	CurrentRank       rank.Rank        `json:"current_rank"`
	NextRank          *rank.Rank       `json:"next_rank"`
	LastPromotionDate generic.Date     `json:"last_promotion_date"`
	NextEligibleDate  *generic.Date    `json:"next_eligible_date"`
	RemainingLabel    string           `json:"remaining_label"`
	Criterion         rank.Criterion   `json:"criterion"`
	DaysRemaining     int              `json:"days_remaining"`
	MonthsRemaining   int              `json:"months_remaining"`
}

// Eligible reports whether the reference date has passed the eligible date.
func (f Forecast) Eligible() bool {
	return f.NextEligibleDate != nil && f.DaysRemaining < 0
}

// Calculator computes forecasts against a rule table.
type Calculator struct {
	Rules rank.Table
	Clock func() time.Time
}

// NewCalculator uses the wall clock.
func NewCalculator(rules rank.Table) *Calculator {
	return &Calculator{Rules: rules, Clock: time.Now}
}

func (c *Calculator) now(now time.Time) time.Time {
	if !now.IsZero() {
		return now
	}
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Calculate projects the next promotion for one member.
// Errors: *rank.UnknownRankError, *generic.InvalidDateError.
func (c *Calculator) Calculate(in Input, now time.Time) (Forecast, error) {
	rule, err := c.Rules.RuleFor(in.Rank, in.IsOfficer)
	if err != nil {
		return Forecast{}, err
	}

	last, err := generic.ParseDate("last_promotion_date", in.LastPromotionDate)
	if err != nil {
		return Forecast{}, err
	}

	f := Forecast{
		MemberID:          in.MemberID,
		CurrentRank:       in.Rank,
		LastPromotionDate: last,
		Criterion:         rule.Criterion,
	}

	if rule.IsCeiling() {
		f.RemainingLabel = LabelNotApplicable
		return f, nil
	}

	eligible := EligibleDate(last, rule)
	today := generic.DateOf(c.now(now))

	f.NextRank = rule.NextRank()
	f.NextEligibleDate = &eligible
	f.DaysRemaining = generic.DaysBetween(today, eligible)
	f.MonthsRemaining = generic.MonthsBetween(today, eligible)
	f.RemainingLabel = RemainingLabel(f.DaysRemaining, f.MonthsRemaining)
	return f, nil
}

// EligibleDate adds the rule's minimum years in rank to the last promotion.
func EligibleDate(last generic.Date, rule rank.Rule) generic.Date {
	return last.AddYears(int(rule.MinimumYears))
}
