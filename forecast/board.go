package forecast

import (
	"sort"
	"time"

	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/rank"
	"github.com/cbm/promotion-engine/vacancy"
)

// Candidate is a member considered for the board of their rank.
type Candidate struct {
	Input       Input
	DisplayName string
	Score       generic.Points // merit score since last promotion
}

type BoardEntry struct {
	Position          int              `json:"position"`
	MemberID          generic.MemberID `json:"member_id"`
	DisplayName       string           `json:"display_name"`
	LastPromotionDate generic.Date     `json:"last_promotion_date"`
	NextEligibleDate  generic.Date     `json:"next_eligible_date"`
	Score             string           `json:"score"`
	WithinVacancies   bool             `json:"within_vacancies"`
}

// Board is the quadro de acesso of one rank inside one corps.
type Board struct {
	Corps          rank.Corps     `json:"corps"`
	Rank           rank.Rank      `json:"rank"`
	NextRank       *rank.Rank     `json:"next_rank"`
	Criterion      rank.Criterion `json:"criterion"`
	AvailableSeats uint           `json:"available_seats"`
	AsOf           generic.Date   `json:"as_of"`
	Entries        []BoardEntry   `json:"entries"`
	Skipped        []RecordError  `json:"-"`
}

// Board lists eligible candidates of rank r in corps c, ordered by the rule's
// criterion, and marks the first N where N is the free seats of the next
// rank in the same corps.
//
//	seniority: earliest last promotion first, then member ID
//	merit:     highest score first, then seniority
//
// Ceiling ranks and uncapped corps have no board.
func (c *Calculator) Board(corps rank.Corps, r rank.Rank, candidates []Candidate, vacancies vacancy.Report, now time.Time) (Board, error) {
	if !corps.Valid() {
		return Board{}, &rank.UnknownCorpsError{Value: corps.String()}
	}
	rule, err := c.Rules.RuleFor(r, corps.IsOfficer())
	if err != nil {
		return Board{}, err
	}
	now = c.now(now)

	b := Board{
		Corps:     corps,
		Rank:      r,
		NextRank:  rule.NextRank(),
		Criterion: rule.Criterion,
		AsOf:      generic.DateOf(now),
		Entries:   []BoardEntry{},
	}
	if rule.IsCeiling() || !corps.Capped() {
		return b, nil
	}
	if cr, ok := vacancies.For(corps); ok {
		if row, ok := cr.Row(rule.Next); ok {
			b.AvailableSeats = row.AvailableSeats
		}
	}

	type ranked struct {
		cand Candidate
		f    Forecast
	}
	var eligible []ranked
	for _, cand := range candidates {
		if cand.Input.Rank != r {
			continue
		}
		f, err := c.Calculate(cand.Input, now)
		if err != nil {
			b.Skipped = append(b.Skipped, RecordError{MemberID: cand.Input.MemberID, Err: err})
			continue
		}
		if f.Eligible() {
			eligible = append(eligible, ranked{cand, f})
		}
	}

	bySeniority := func(a, b ranked) bool {
		if !a.f.LastPromotionDate.Equal(b.f.LastPromotionDate) {
			return a.f.LastPromotionDate.Before(b.f.LastPromotionDate)
		}
		return a.cand.Input.MemberID < b.cand.Input.MemberID
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, bb := eligible[i], eligible[j]
		if rule.Criterion == rank.Merit && !a.cand.Score.Equal(bb.cand.Score) {
			return a.cand.Score.GreaterThan(bb.cand.Score)
		}
		return bySeniority(a, bb)
	})

	for i, e := range eligible {
		b.Entries = append(b.Entries, BoardEntry{
			Position:          i + 1,
			MemberID:          e.cand.Input.MemberID,
			DisplayName:       e.cand.DisplayName,
			LastPromotionDate: e.f.LastPromotionDate,
			NextEligibleDate:  *e.f.NextEligibleDate,
			Score:             e.cand.Score.String(),
			WithinVacancies:   uint(i) < b.AvailableSeats,
		})
	}
	return b, nil
}
